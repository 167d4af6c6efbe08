package domain_test

import (
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Örnek Kimya A.Ş.", "örnek kimya"},
		{"örnek kimya", "örnek kimya"},
		{"ACME Ltd. Şti.", "acme"},
		{"  Beta   Kozmetik San. ve Tic. ", "beta kozmetik ve"},
		{"IŞIK Ambalaj", "işik ambalaj"},
		{"Gamma-Co", "gamma"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizeName(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", domain.NormalizeEmail("  Ada@Example.COM "))
}
