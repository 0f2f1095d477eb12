package types

import (
	"errors"
	"reflect"
	"testing"
)

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    Plan
		wantErr bool
	}{
		{
			name: "ok",
			plan: Plan{
				Addresses:    []string{"COM6", "COM7"},
				TempLoops:    []TempLoop{{Box: 1, Card: 3, Channel: 1}},
				CurrentLoops: []CurrentLoop{{Box: 0, Card: 4}},
			},
		},
		{name: "no boxes", plan: Plan{}, wantErr: true},
		{
			name:    "empty address",
			plan:    Plan{Addresses: []string{"COM6", ""}},
			wantErr: true,
		},
		{
			name: "temp loop on missing box",
			plan: Plan{
				Addresses: []string{"COM6"},
				TempLoops: []TempLoop{{Box: 1, Card: 3, Channel: 1}},
			},
			wantErr: true,
		},
		{
			name: "current loop on missing box",
			plan: Plan{
				Addresses:    []string{"COM6"},
				CurrentLoops: []CurrentLoop{{Box: -1, Card: 3}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPlan) {
				t.Fatalf("Validate() error = %v, want ErrInvalidPlan", err)
			}
		})
	}
}

func TestPlanCardsByBox(t *testing.T) {
	p := Plan{
		Addresses: []string{"COM6", "COM7"},
		TempLoops: []TempLoop{
			{Box: 0, Card: 4, Channel: 1},
			{Box: 0, Card: 4, Channel: 2},
			{Box: 1, Card: 3, Channel: 1},
		},
		CurrentLoops: []CurrentLoop{{Box: 0, Card: 1}},
	}

	want := map[int][]int{0: {1, 4}, 1: {3}}
	if got := p.CardsByBox(); !reflect.DeepEqual(got, want) {
		t.Errorf("CardsByBox() = %v, want %v", got, want)
	}
}
