package queryapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQueryRejectsEmpty(t *testing.T) {
	assert.NotNil(t, ValidateQuery("   "))
}

func TestValidateQueryRejectsTooLong(t *testing.T) {
	assert.NotNil(t, ValidateQuery(strings.Repeat("a", 501)))
}

func TestValidateQueryRejectsSQLKeywords(t *testing.T) {
	assert.NotNil(t, ValidateQuery("DROP TABLE products"))
	assert.NotNil(t, ValidateQuery("find onion; DELETE FROM products"))
}

func TestValidateQueryAcceptsNormalQuery(t *testing.T) {
	assert.Nil(t, ValidateQuery("cheapest onion on blinkit"))
}

func TestValidatePlatformsRejectsUnknown(t *testing.T) {
	assert.NotNil(t, ValidatePlatforms([]string{"Blinkit", "NotAPlatform"}))
}

func TestValidatePlatformsAcceptsKnown(t *testing.T) {
	assert.Nil(t, ValidatePlatforms([]string{"Blinkit", "Zepto"}))
}

func TestValidateMinDiscountRange(t *testing.T) {
	assert.NotNil(t, ValidateMinDiscount(-1))
	assert.NotNil(t, ValidateMinDiscount(101))
	assert.Nil(t, ValidateMinDiscount(50))
}

func TestValidateLimitCap(t *testing.T) {
	assert.NotNil(t, ValidateLimit(101))
	assert.Nil(t, ValidateLimit(100))
}
