package metrics

import (
	"errors"

	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/token"
)

// sessionVerifier はセッショントークン検証のインターフェース。
// token.Codecの部分集合。
type sessionVerifier interface {
	VerifySession(tokenString string) (*model.Identity, error)
}

// InstrumentedVerifier はセッショントークン検証の結果をメトリクスに記録するデコレータ。
type InstrumentedVerifier struct {
	inner     sessionVerifier
	collector *Collector
}

// NewInstrumentedVerifier はInstrumentedVerifierを生成する。
func NewInstrumentedVerifier(inner sessionVerifier, collector *Collector) *InstrumentedVerifier {
	return &InstrumentedVerifier{inner: inner, collector: collector}
}

// VerifySession は内側の検証に委譲し、結果を記録する。
func (v *InstrumentedVerifier) VerifySession(tokenString string) (*model.Identity, error) {
	identity, err := v.inner.VerifySession(tokenString)
	switch {
	case err == nil:
		v.collector.RecordTokenVerify("ok")
	case errors.Is(err, token.ErrTokenExpired):
		v.collector.RecordTokenVerify("expired")
	default:
		v.collector.RecordTokenVerify("invalid")
	}
	return identity, err
}
