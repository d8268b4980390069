package errors

import (
	stderrors "errors"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindQuoteFailed, errors.New("execution reverted"))
	assert.Equal(t, KindQuoteFailed, KindOf(err))
	assert.Equal(t, KindQuoteFailed, KindOf(errors.Wrap(err, "quoting")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	err := New(KindSwapReverted, errors.New("receipt status 0"))
	assert.True(t, stderrors.Is(err, ErrSwapReverted))
	assert.False(t, stderrors.Is(err, ErrApprovalFailed))
	assert.True(t, stderrors.Is(errors.Wrap(err, "swap"), ErrSwapReverted))
}

func TestNewKeepsExistingClassification(t *testing.T) {
	rejected := New(KindUserRejected, errors.New("denied in wallet"))
	err := New(KindApprovalFailed, errors.Wrap(rejected, "failed to sign approve"))
	assert.Equal(t, KindUserRejected, err.Kind)
}

func TestNewWithoutCauseUsesSentinel(t *testing.T) {
	err := New(KindTimedOut, nil)
	assert.Equal(t, "TimedOut: confirmation timed out", err.Error())
}

func TestBroadcasted(t *testing.T) {
	err := Broadcasted(KindFeePaymentFailed, "0xabc", errors.New("reverted"))
	assert.True(t, err.Broadcast)
	assert.Equal(t, "0xabc", err.TxHash)
	assert.Equal(t, KindFeePaymentFailed, err.Kind)
}
