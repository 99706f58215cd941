package service

import (
	"testing"

	connmodel "LinkChat/module/connection/model"
	"LinkChat/tools/errs"
)

func TestRequestBlock(t *testing.T) {
	cases := []struct {
		name     string
		existing *connmodel.Connection
		blocked  bool
	}{
		{"no relationship", nil, false},
		{"pending", &connmodel.Connection{Status: connmodel.StatusPending}, true},
		{"accepted", &connmodel.Connection{Status: connmodel.StatusAccepted}, true},
		{"rejected", &connmodel.Connection{Status: connmodel.StatusRejected}, true},
	}
	for _, tc := range cases {
		err := requestBlock(tc.existing)
		if !tc.blocked {
			if err != nil {
				t.Fatalf("%s: requestBlock = %v, want nil", tc.name, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%s: requestBlock allowed a new request", tc.name)
		}
		if !errs.ErrConflict.Is(err) {
			t.Fatalf("%s: requestBlock = %v, want conflict", tc.name, err)
		}
	}
}
