package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

func TestContactService_ListFiltersMatchLiterally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewContactService(repositories.NewContactRepo(f.db), nil)

	f.contact(t, &models.Contact{FirstName: ptr("Ana"), Company: ptr("50% Club"), Tags: []string{"a_b", "50%"}})
	f.contact(t, &models.Contact{FirstName: ptr("Bo"), Company: ptr("500 Club"), Tags: []string{"axb", "50x"}})
	f.contact(t, &models.Contact{FirstName: ptr("Cy"), Tags: []string{"a_bc"}})

	tests := []struct {
		name   string
		filter models.ContactFilter
		want   []string
	}{
		{name: "underscore tag", filter: models.ContactFilter{Tag: "a_b"}, want: []string{"Ana"}},
		{name: "percent tag", filter: models.ContactFilter{Tag: "50%"}, want: []string{"Ana"}},
		{name: "plain tag", filter: models.ContactFilter{Tag: "axb"}, want: []string{"Bo"}},
		{name: "wildcard-only tag", filter: models.ContactFilter{Tag: "%"}, want: nil},
		{name: "percent search", filter: models.ContactFilter{Search: "50%"}, want: []string{"Ana"}},
		{name: "underscore search", filter: models.ContactFilter{Search: "5_0"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.WorkspaceID = f.ws.ID
			list, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)

			var names []string
			for _, c := range list {
				names = append(names, *c.FirstName)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}
