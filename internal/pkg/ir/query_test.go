package ir

import (
	"testing"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/stretchr/testify/assert"
)

func TestResolvedDateField(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"videos default", Query{Table: catalog.TableVideos}, catalog.FieldVideoCreatedAt},
		{"snapshots default", Query{Table: catalog.TableSnapshots}, catalog.FieldCreatedAt},
		{"explicit wins", Query{Table: catalog.TableSnapshots, DateField: catalog.FieldVideoCreatedAt}, catalog.FieldVideoCreatedAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.ResolvedDateField())
		})
	}
}

func TestNormalizeAndFoldID(t *testing.T) {
	assert.Equal(t, "ACA1061A9D324ECF8C3FA2BB32D7BE63", NormalizeID(" ACA1061A-9D32-4ECF-8C3F-A2BB32D7BE63 "))
	assert.Equal(t, "aca1061a9d324ecf8c3fa2bb32d7be63", FoldID("ACA1061A-9D32-4ECF-8C3F-A2BB32D7BE63"))

	q := Query{Filters: Filters{CreatorID: "aca1061a-9d32-4ecf-8c3f-a2bb32d7be63"}}
	assert.True(t, q.HasCreator())
	assert.Equal(t, "aca1061a9d324ecf8c3fa2bb32d7be63", q.NormalizedCreatorID())
}

func TestHasDateWindow(t *testing.T) {
	assert.False(t, Query{}.HasDateWindow())
	assert.True(t, Query{Filters: Filters{DateTo: "2025-11-05"}}.HasDateWindow())
}
