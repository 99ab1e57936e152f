package world

import "github.com/santhosh-tekuri/jsonschema/v5"

// Moons may not carry moons of their own; the schema encodes the depth limit.
const descriptionSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["sun", "planets", "fleet"],
  "additionalProperties": false,
  "properties": {
    "seed": {"type": "integer"},
    "sun": {
      "type": "object",
      "required": ["name", "radius"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "radius": {"type": "number", "exclusiveMinimum": 0}
      }
    },
    "planets": {"type": "array", "items": {"$ref": "#/definitions/planet"}},
    "fleet": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "miners": {"type": "integer", "minimum": 0},
        "traders": {"type": "integer", "minimum": 0},
        "pirates": {"type": "integer", "minimum": 0},
        "pirate_anchors": {"type": ["array", "null"], "items": {"$ref": "#/definitions/vec"}}
      }
    },
    "tuning": {"type": "object"}
  },
  "definitions": {
    "vec": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
    },
    "orbit": {
      "type": "object",
      "required": ["radius", "period"],
      "additionalProperties": false,
      "properties": {
        "radius": {"type": "number", "exclusiveMinimum": 0},
        "period": {"type": "number", "minimum": 0},
        "phase": {"type": "number"},
        "retrograde": {"type": "boolean"}
      }
    },
    "station": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "ore": {"type": "integer", "minimum": 0}
      }
    },
    "moon": {
      "type": "object",
      "required": ["name", "radius", "orbit"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "radius": {"type": "number", "exclusiveMinimum": 0},
        "orbit": {"$ref": "#/definitions/orbit"},
        "ore": {"type": "integer", "minimum": 0},
        "stations": {"type": ["array", "null"], "items": {"$ref": "#/definitions/station"}}
      }
    },
    "planet": {
      "type": "object",
      "required": ["name", "radius", "orbit"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "radius": {"type": "number", "exclusiveMinimum": 0},
        "orbit": {"$ref": "#/definitions/orbit"},
        "ore": {"type": "integer", "minimum": 0},
        "stations": {"type": ["array", "null"], "items": {"$ref": "#/definitions/station"}},
        "moons": {"type": ["array", "null"], "items": {"$ref": "#/definitions/moon"}}
      }
    }
  }
}`

var descriptionSchema = jsonschema.MustCompileString("description.schema.json", descriptionSchemaJSON)
