package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_Names(t *testing.T) {
	names := []string{}
	for _, c := range Collections() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Indexes, c.Name)
		assert.Contains(t, c.Validator, "$jsonSchema", c.Name)
	}
	assert.Equal(t, []string{"Business_profiles", "Customers"}, names)
}

func TestCustomersIndexes_UniquePerBusinessPhone(t *testing.T) {
	idx := CustomersIndexes[0]
	assert.Equal(t, bson.D{{Key: "business_id", Value: 1}, {Key: "phone", Value: 1}}, idx.Keys)
	require.NotNil(t, idx.Options)
	require.NotNil(t, idx.Options.Unique)
	assert.True(t, *idx.Options.Unique)
}

func TestBusinessProfilesIndexes_SearchKey(t *testing.T) {
	keys := BusinessProfilesIndexes[0].Keys.(bson.D)
	assert.Equal(t, "city_key", keys[0].Key)
	assert.Equal(t, "is_complete", keys[1].Key)
}
