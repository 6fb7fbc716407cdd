package validators

import "go.mongodb.org/mongo-driver/bson"

var MentorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "email", "timezone"},
		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},
			"timezone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"services": bson.M{
				"bsonType": "array",
				"maxItems": 20,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"type", "price"},
					"properties": bson.M{
						"type": bson.M{
							"enum": []string{"oneOnOne", "chatAdvice", "digitalProduct", "notes"},
						},
						"duration_min": bson.M{
							"bsonType": []string{"int", "long"},
							"minimum":  1,
							"maximum":  480,
						},
						"price": bson.M{
							"bsonType": []string{"double", "int", "long", "decimal"},
							"minimum":  0,
						},
					},
				},
			},
		},
	},
}
