package email

const (
	subjectHotLeadAlertFmt = "Lead quente: %s precisa de contato imediato"
	subjectLeadAssigned    = "Novo lead atribuído a você"
	subjectNurtureFollowUp = "Ainda procurando seu imóvel?"
)
