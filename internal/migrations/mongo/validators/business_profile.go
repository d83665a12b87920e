package validators

import "go.mongodb.org/mongo-driver/bson"

var BusinessProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"city_key",
			"completion_percentage",
			"is_complete",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"city_key": bson.M{
				"bsonType": "string",
			},

			"services": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"name"},
					"properties": bson.M{
						"name":        bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
						"price_cents": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
					},
				},
			},

			"business_hours": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 7,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"day", "closed"},
					"properties": bson.M{
						"day": bson.M{
							"enum": []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
						},
						"open":   bson.M{"bsonType": "string"},
						"close":  bson.M{"bsonType": "string"},
						"closed": bson.M{"bsonType": "bool"},
					},
				},
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^(\+[0-9]{7,15})?$`,
			},

			"completion_percentage": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  100,
			},

			"is_complete": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
