package validators

import "go.mongodb.org/mongo-driver/bson"

// Recurring rules need day_of_week, one-off rules need specific_date.
var AvailabilityRuleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"mentor_id", "start_time", "end_time", "is_recurring"},
		"properties": bson.M{
			"mentor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"day_of_week": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  6,
			},
			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},
			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},
			"is_recurring": bson.M{
				"bsonType": "bool",
			},
			"specific_date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},
		},
		"oneOf": bson.A{
			bson.M{
				"properties": bson.M{"is_recurring": bson.M{"enum": bson.A{true}}},
				"required":   []string{"day_of_week"},
			},
			bson.M{
				"properties": bson.M{"is_recurring": bson.M{"enum": bson.A{false}}},
				"required":   []string{"specific_date"},
			},
		},
	},
}

var BlockedDateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"mentor_id", "date"},
		"properties": bson.M{
			"mentor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},
			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},
		},
	},
}
