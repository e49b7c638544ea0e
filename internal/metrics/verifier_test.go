package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/token"
)

type stubVerifier struct {
	identity *model.Identity
	err      error
}

func (s *stubVerifier) VerifySession(tokenString string) (*model.Identity, error) {
	return s.identity, s.err
}

var _ sessionVerifier = (*stubVerifier)(nil)

// TestInstrumentedVerifier_RecordsOutcome は検証結果ごとに正しいラベルで記録されることを検証する。
func TestInstrumentedVerifier_RecordsOutcome(t *testing.T) {
	tests := []struct {
		name     string
		identity *model.Identity
		err      error
	}{
		{"検証成功", &model.Identity{UserID: 1, UserType: model.UserTypeBuyer}, nil},
		{"期限切れ", nil, token.ErrTokenExpired},
		{"署名不正", nil, token.ErrTokenInvalid},
		{"その他のエラー", nil, errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			c := NewCollector(reg)
			v := NewInstrumentedVerifier(&stubVerifier{identity: tt.identity, err: tt.err}, c)

			identity, err := v.VerifySession("token")

			// 内側の結果がそのまま透過すること
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if identity != tt.identity {
				t.Errorf("identity = %v, want %v", identity, tt.identity)
			}

			if got := counterValue(t, reg, "realtor_token_verify_total"); got != 1 {
				t.Errorf("token_verify_total = %v, want 1", got)
			}
		})
	}
}
