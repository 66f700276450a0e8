package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

type mapDirectory map[string]Actor

func (d mapDirectory) Lookup(_ context.Context, id string) (Actor, error) {
	a, ok := d[id]
	if !ok {
		return Actor{}, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	return a, nil
}

func TestResolveActor(t *testing.T) {
	dir := mapDirectory{
		"u1":      {ID: "u1", Name: "Sari", Active: true},
		System.ID: System,
	}
	tests := []struct {
		name     string
		id       string
		wantCode cerr.Code
	}{
		{name: "known user", id: "u1"},
		{name: "missing header", id: "", wantCode: cerr.Unauthenticated},
		{name: "unknown user", id: "ghost", wantCode: cerr.Unauthenticated},
		{name: "system id", id: System.ID, wantCode: cerr.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := actor.WithID(context.Background(), tt.id)
			a, err := ResolveActor(ctx, dir)
			if tt.wantCode != cerr.OK {
				assert.True(t, cerr.IsCode(err, tt.wantCode), "got %v", err)
				assert.False(t, a.Admin)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Sari", a.Name)
		})
	}
}
