package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jarrod640-svg/pdfswift/internal/models"
)

func TestEvaluate(t *testing.T) {
	limits := Default()

	tests := []struct {
		name           string
		tier           models.SubscriptionTier
		status         models.SubscriptionStatus
		conversionType string
		fileSizeMB     float64
		remaining      int
		wantAllowed    bool
		wantReason     Reason
	}{
		{
			name:           "бесплатный тариф - обычная конвертация разрешена",
			tier:           models.TierFree,
			status:         models.StatusActive,
			conversionType: "merge-pdf",
			fileSizeMB:     1,
			remaining:      3,
			wantAllowed:    true,
		},
		{
			name:           "бесплатный тариф - премиум конвертация запрещена",
			tier:           models.TierFree,
			status:         models.StatusActive,
			conversionType: "pdf-to-word",
			fileSizeMB:     1,
			remaining:      3,
			wantAllowed:    false,
			wantReason:     ReasonUpgradeRequired,
		},
		{
			name:           "платный тариф - премиум конвертация разрешена",
			tier:           models.TierPro,
			status:         models.StatusActive,
			conversionType: "pdf-to-word",
			fileSizeMB:     1,
			remaining:      0,
			wantAllowed:    true,
		},
		{
			name:           "статус past_due понижает тариф до бесплатного",
			tier:           models.TierPro,
			status:         models.StatusPastDue,
			conversionType: "merge-pdf",
			fileSizeMB:     50,
			remaining:      0,
			wantAllowed:    false,
			wantReason:     ReasonFileTooLarge,
		},
		{
			name:           "отменённая подписка - премиум недоступен",
			tier:           models.TierBusiness,
			status:         models.StatusCancelled,
			conversionType: "pdf-to-excel",
			fileSizeMB:     5,
			remaining:      3,
			wantAllowed:    false,
			wantReason:     ReasonUpgradeRequired,
		},
		{
			name:           "превышение размера файла на бесплатном тарифе",
			tier:           models.TierFree,
			status:         models.StatusActive,
			conversionType: "compress-pdf",
			fileSizeMB:     10.5,
			remaining:      3,
			wantAllowed:    false,
			wantReason:     ReasonFileTooLarge,
		},
		{
			name:           "превышение размера файла на тарифе business",
			tier:           models.TierBusiness,
			status:         models.StatusActive,
			conversionType: "compress-pdf",
			fileSizeMB:     501,
			remaining:      0,
			wantAllowed:    false,
			wantReason:     ReasonFileTooLarge,
		},
		{
			name:           "дневная квота исчерпана",
			tier:           models.TierFree,
			status:         models.StatusActive,
			conversionType: "split-pdf",
			fileSizeMB:     1,
			remaining:      0,
			wantAllowed:    false,
			wantReason:     ReasonDailyLimitReached,
		},
		{
			name:           "проверка размера идёт раньше проверки квоты",
			tier:           models.TierFree,
			status:         models.StatusActive,
			conversionType: "split-pdf",
			fileSizeMB:     20,
			remaining:      0,
			wantAllowed:    false,
			wantReason:     ReasonFileTooLarge,
		},
		{
			name:           "платный тариф не зависит от остатка квоты",
			tier:           models.TierPro,
			status:         models.StatusActive,
			conversionType: "merge-pdf",
			fileSizeMB:     99,
			remaining:      -5,
			wantAllowed:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := limits.Evaluate(tt.tier, tt.status, tt.conversionType, tt.fileSizeMB, tt.remaining)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	limits := Default()
	first := limits.Evaluate(models.TierFree, models.StatusActive, "pdf-to-word", 1, 3)
	for range 10 {
		assert.Equal(t, first, limits.Evaluate(models.TierFree, models.StatusActive, "pdf-to-word", 1, 3))
	}
}

func TestEffectiveTier(t *testing.T) {
	assert.Equal(t, models.TierPro, EffectiveTier(models.TierPro, models.StatusActive))
	assert.Equal(t, models.TierFree, EffectiveTier(models.TierPro, models.StatusPastDue))
	assert.Equal(t, models.TierFree, EffectiveTier(models.TierBusiness, models.StatusCancelled))
	assert.Equal(t, models.TierFree, EffectiveTier(models.TierFree, models.StatusActive))
}
