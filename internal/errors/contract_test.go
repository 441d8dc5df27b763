package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractViolation_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ContractViolation
		want string
	}{
		{
			name: "thread bound",
			err:  &ContractViolation{Thread: 2, Phase: PhaseBody, Message: "shared data is nil"},
			want: "contract violation in body on thread 2: shared data is nil",
		},
		{
			name: "no thread",
			err:  &ContractViolation{Thread: NoThread, Phase: PhaseReport, Message: "context cannot be nil"},
			want: "contract violation in report: context cannot be nil",
		},
		{
			name: "no phase",
			err:  NewContractViolation("bad %s", "input"),
			want: "contract violation in harness: bad input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCheck(t *testing.T) {
	assert.NotPanics(t, func() { Check(true, "never") })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		cv, ok := r.(*ContractViolation)
		require.True(t, ok)
		assert.Equal(t, "value was 3", cv.Message)
	}()
	Check(false, "value was %d", 3)
}

func TestFromPanic(t *testing.T) {
	t.Run("contract violation keeps message", func(t *testing.T) {
		cv := FromPanic(NewContractViolation("boom"), 1, PhaseSetUp, []byte("stack"))
		assert.Equal(t, 1, cv.Thread)
		assert.Equal(t, PhaseSetUp, cv.Phase)
		assert.Equal(t, "boom", cv.Message)
		assert.Equal(t, []byte("stack"), cv.Stack)
	})

	t.Run("wrapped violation", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", NewContractViolation("inner"))
		cv := FromPanic(err, 0, PhaseTearDown, nil)
		assert.Equal(t, "inner", cv.Message)
	})

	t.Run("plain error", func(t *testing.T) {
		cv := FromPanic(errors.New("plain"), 3, PhaseBody, nil)
		assert.Equal(t, "plain", cv.Message)
		assert.Equal(t, 3, cv.Thread)
	})

	t.Run("arbitrary value", func(t *testing.T) {
		cv := FromPanic(42, 0, PhaseBody, nil)
		assert.Equal(t, "42", cv.Message)
	})
}

func TestIsContractViolation(t *testing.T) {
	assert.True(t, IsContractViolation(fmt.Errorf("wrap: %w", NewContractViolation("x"))))
	assert.False(t, IsContractViolation(errors.New("other")))
	assert.False(t, IsContractViolation(nil))
}

func TestCheckPhase(t *testing.T) {
	assert.NotPanics(t, func() { CheckPhase(PhaseReport, true, "never") })
	assert.PanicsWithError(t, "contract violation in report: missing 2 columns", func() {
		CheckPhase(PhaseReport, false, "missing %d columns", 2)
	})
}
