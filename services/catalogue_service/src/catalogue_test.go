package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogueEmptyBeforeRefresh(t *testing.T) {
	c := &Catalogue{columns: make(map[string][]Column), fks: make(map[string][]ForeignKey)}
	assert.Nil(t, c.tables)
	assert.Empty(t, c.columns)
}

func TestColumnShape(t *testing.T) {
	col := Column{Name: "price", DataType: "numeric", Nullable: false}
	assert.Equal(t, "price", col.Name)
	assert.False(t, col.Nullable)
}

func TestForeignKeyShape(t *testing.T) {
	fk := ForeignKey{Column: "product_id", ForeignTable: "products", ForeignColumn: "id"}
	assert.Equal(t, "products", fk.ForeignTable)
}
