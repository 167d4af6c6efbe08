package domain_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDetermineCategoryFromService(t *testing.T) {
	tests := []struct {
		name      string
		service   string
		product   string
		message   string
		want      domain.RequestCategory
		ambiguous bool
	}{
		{"cosmetic keyword", "Krem üretimi", "", "", domain.CategoryCosmeticManufacturing, false},
		{"turkish upper case", "VITAMIN", "", "", domain.CategorySupplementManufacturing, false},
		{"keyword in message", "", "", "Deterjan için fason üretim arıyoruz", domain.CategoryCleaningManufacturing, false},
		{"english keyword", "packaging", "", "", domain.CategoryPackagingSupply, false},
		{"no keyword falls back", "Genel bilgi", "", "merhaba", domain.CategoryConsultation, false},
		{"empty input", "", "", "", domain.CategoryConsultation, false},
		{"first rule wins when ambiguous", "krem", "", "reklam kampanyası", domain.CategoryCosmeticManufacturing, true},
		{"turkish suffix still matches", "Kremlerimiz için", "", "", domain.CategoryCosmeticManufacturing, false},
		{"short keyword inside another word", "", "", "bu saçma bir soru", domain.CategoryConsultation, false},
		{"short keyword as a word", "saç bakım ürünleri", "", "", domain.CategoryCosmeticManufacturing, false},
		{"keyword inside a longer word", "", "", "office chair", domain.CategoryConsultation, false},
		{"seo is not seoul", "", "", "Seoul ofisimiz", domain.CategoryConsultation, false},
		{"seo as a word", "SEO danışmanlığı", "", "", domain.CategoryDigitalMarketing, false},
		{"keyword after punctuation", "", "", "ürün: serum, 5k adet", domain.CategoryCosmeticManufacturing, false},
		{"multi-word keyword", "", "", "Sosyal medya yönetimi", domain.CategoryDigitalMarketing, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.DetermineCategoryFromService(tt.service, tt.product, tt.message)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.ambiguous, got.Ambiguous)
		})
	}
}

func TestDetermineCategoryFromService_ListsAllMatches(t *testing.T) {
	got := domain.DetermineCategoryFromService("krem", "", "reklam kampanyası")
	assert.Equal(t, []domain.RequestCategory{
		domain.CategoryCosmeticManufacturing,
		domain.CategoryDigitalMarketing,
	}, got.Matches)
}

func TestMapPriority(t *testing.T) {
	tests := map[string]domain.Priority{
		"acil":    domain.PriorityUrgent,
		" URGENT": domain.PriorityUrgent,
		"Yüksek":  domain.PriorityHigh,
		"high":    domain.PriorityHigh,
		"düşük":   domain.PriorityLow,
		"":        domain.PriorityNormal,
		"soon":    domain.PriorityNormal,
	}
	for in, want := range tests {
		assert.Equal(t, want, domain.MapPriority(in), "input %q", in)
	}
}
