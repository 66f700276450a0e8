package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/damwatch/taskdesk/pkg/cerr"
)

func TestCheckPage(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset int
		wantErr       bool
	}{
		{name: "defaults", limit: 0, offset: 0},
		{name: "paged", limit: 20, offset: 40},
		{name: "negative offset", limit: 10, offset: -1, wantErr: true},
		{name: "negative limit", limit: -5, offset: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPage(tt.limit, tt.offset)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
		})
	}
}
