package results

import (
	"errors"
	"testing"
)

func TestOperationResult(t *testing.T) {
	ok := SuccessResult[int, error](42)
	if !ok.IsSuccess() || ok.IsFailure() || *ok.Success != 42 {
		t.Fatalf("unexpected success result %+v", ok)
	}

	errBoom := errors.New("boom")
	failed := FailureResult[int, error](errBoom)
	if failed.IsSuccess() || !failed.IsFailure() || !errors.Is(*failed.Failure, errBoom) {
		t.Fatalf("unexpected failure result %+v", failed)
	}

	var zero OperationResult[int, error]
	if zero.IsSuccess() || zero.IsFailure() {
		t.Fatal("zero value should be neither success nor failure")
	}
}
