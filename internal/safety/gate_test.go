package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		wantAction   Action
		wantCategory string
	}{
		{"medication blocks", "should I change my insulin before workouts?", ActionBlock, CategoryMedication},
		{"medication priority over condition", "I take metformin for my diabetes", ActionBlock, CategoryMedication},
		{"allergy blocks", "I have a nut allergy, what snacks work?", ActionBlock, CategoryAllergy},
		{"condition blocks", "I have diabetes, can I fast?", ActionBlock, CategoryCondition},
		{"pregnancy blocks", "is HIIT okay while pregnant?", ActionBlock, CategoryCondition},
		{"emergency upgrades condition", "I have diabetes and chest pain right now", ActionBlock, CategoryEmergency},
		{"emergency alone blocks", "I feel suicidal", ActionBlock, CategoryEmergency},
		{"redirect topic", "my thyroid has been acting up", ActionRedirect, CategoryHealth},
		{"plain question allows", "suggest a HIIT workout", ActionAllow, ""},
		{"breakfast allows", "What should I eat for breakfast?", ActionAllow, ""},
		{"short keyword needs boundary", "I grilled spare ribs yesterday", ActionAllow, ""},
		{"short keyword on boundary", "my ibs flares after big meals", ActionRedirect, CategoryHealth},
		{"meds on boundary", "can I adjust my meds schedule?", ActionBlock, CategoryMedication},
		{"comedy does not match meds", "that comedy workout video was great", ActionAllow, ""},
		{"empty input", "", ActionAllow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.wantCategory, got.Category)
			if tt.wantAction == ActionBlock {
				assert.NotEmpty(t, got.Message, "block decisions carry a fixed message")
				assert.NotEmpty(t, got.Keywords)
			}
		})
	}
}

func TestClassifyInvariance(t *testing.T) {
	a := Classify("I HAVE DIABETES")
	b := Classify("  i   have   diabetes  ")

	assert.Equal(t, a.Action, b.Action)
	assert.Equal(t, a.Category, b.Category)
	assert.Equal(t, a.Keywords, b.Keywords)
	assert.Equal(t, a.Message, b.Message)
}

func TestClassifyFixedBlockText(t *testing.T) {
	first := Classify("I have diabetes, can I fast?")
	second := Classify("I have diabetes, can I fast?")

	assert.Equal(t, ActionBlock, first.Action)
	assert.Equal(t, first.Message, second.Message, "block text is fixed and deterministic")
}

func TestScanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"dosage phrasing", "You should take 500 mg per day with meals.", true},
		{"diagnosis phrasing", "You likely have a vitamin deficiency.", true},
		{"stop taking", "Maybe stop taking it before cardio.", true},
		{"coaching text clean", "Great job on your streak! Try three sets of squats today.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScanResponse(tt.in); got != tt.want {
				t.Errorf("ScanResponse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
