package validators

import "go.mongodb.org/mongo-driver/bson"

var CustomerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"business_id",
			"phone",
			"completed_service_count",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"business_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[0-9]{7,15}$`,
			},

			"completed_service_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"last_completed_service_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"processed_event_ids": bson.M{
				"bsonType": "array",
				"maxItems": 100,
				"items":    bson.M{"bsonType": "string"},
			},
		},
	},
}
