package sla

import (
	"testing"

	"leadtriage_backend/internal/quality"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		score int
		grade quality.Grade
		want  Classification
	}{
		{
			name:  "hot lead",
			score: 85,
			grade: quality.GradeC,
			want:  Classification{Class: ClassHot, SLA: LevelImmediate, PriorityOverride: true},
		},
		{
			name:  "hot boundary",
			score: 80,
			grade: quality.GradeD,
			want:  Classification{Class: ClassHot, SLA: LevelImmediate, PriorityOverride: true},
		},
		{
			name:  "warm lead",
			score: 65,
			grade: quality.GradeB,
			want:  Classification{Class: ClassWarm, SLA: LevelNormal},
		},
		{
			name:  "warm boundary",
			score: 50,
			grade: quality.GradeD,
			want:  Classification{Class: ClassWarm, SLA: LevelNormal},
		},
		{
			name:  "cold with good quality",
			score: 30,
			grade: quality.GradeB,
			want:  Classification{Class: ClassCold, SLA: LevelNormal},
		},
		{
			name:  "cold with poor quality goes to nurture",
			score: 30,
			grade: quality.GradeC,
			want:  Classification{Class: ClassCold, SLA: LevelNurture},
		},
		{
			name:  "zero score grade D",
			score: 0,
			grade: quality.GradeD,
			want:  Classification{Class: ClassCold, SLA: LevelNurture},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.score, tc.grade, 0, 0); got != tc.want {
				t.Errorf("Classify(%d, %s) = %+v, want %+v", tc.score, tc.grade, got, tc.want)
			}
		})
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	got := Classify(60, quality.GradeB, 60, 40)
	if got.Class != ClassHot {
		t.Errorf("class = %q, want HOT with lowered threshold", got.Class)
	}

	got = Classify(35, quality.GradeB, 60, 40)
	if got.Class != ClassCold || got.SLA != LevelNormal {
		t.Errorf("classification = %+v, want cold normal", got)
	}
}
