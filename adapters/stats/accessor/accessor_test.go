package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sprawlstats/domain/observation"
)

func samplePoint() *observation.Observation {
	return &observation.Observation{
		ID:          "p-1",
		Kind:        observation.KindResource,
		Name:        "Vein",
		Timestamp:   1700,
		Coordinates: observation.Coordinates{X: 12.5, Y: -3},
		Properties: observation.Properties{
			"amount": observation.Number(40),
			"name":   observation.String("shadowed"),
			"survey": observation.Map(observation.Properties{
				"depth": observation.Number(7),
			}),
		},
		Metadata: observation.Properties{
			"source": observation.String("probe"),
			"amount": observation.Number(-1),
			"nested": observation.Map(observation.Properties{"level": observation.Int(2)}),
		},
	}
}

func TestCompileDirectFields(t *testing.T) {
	p := samplePoint()

	assert.Equal(t, observation.String("p-1"), Compile("id")(p))
	assert.Equal(t, observation.String("resource"), Compile("kind")(p))
	assert.Equal(t, observation.String("resource"), Compile("type")(p))
	// direct fields shadow properties with the same key
	assert.Equal(t, observation.String("Vein"), Compile("name")(p))

	ts, ok := Compile("timestamp").Float(p)
	assert.True(t, ok)
	assert.Equal(t, 1700.0, ts)

	x, ok := Compile("coordinates.x").Float(p)
	assert.True(t, ok)
	assert.Equal(t, 12.5, x)
	y, _ := Compile("coordinates.y").Float(p)
	assert.Equal(t, -3.0, y)
}

func TestCompilePropertiesThenMetadata(t *testing.T) {
	p := samplePoint()

	amount, ok := Compile("amount").Float(p)
	assert.True(t, ok)
	assert.Equal(t, 40.0, amount, "properties win over metadata")

	src, ok := Compile("source").Text(p)
	assert.True(t, ok)
	assert.Equal(t, "probe", src)

	assert.False(t, Compile("missing")(p).IsDefined())
}

func TestCompileNestedPaths(t *testing.T) {
	p := samplePoint()

	depth, ok := Compile("survey.depth").Float(p)
	assert.True(t, ok)
	assert.Equal(t, 7.0, depth)

	depth, ok = Compile("properties.survey.depth").Float(p)
	assert.True(t, ok)
	assert.Equal(t, 7.0, depth)

	level, ok := Compile("nested.level").Float(p)
	assert.True(t, ok, "nested lookup falls back to metadata")
	assert.Equal(t, 2.0, level)

	assert.False(t, Compile("survey.depth.deeper")(p).IsDefined())
	assert.False(t, Compile("amount.inner")(p).IsDefined())
}

func TestCompileIsMemoized(t *testing.T) {
	a := New()
	a.Compile("amount")
	a.Compile("amount")
	a.Compile("coordinates.x")
	assert.Equal(t, 2, a.Size())
}

func TestCompileOnEmptyObservation(t *testing.T) {
	var p observation.Observation
	assert.False(t, Compile("amount")(&p).IsDefined())
	assert.False(t, Compile("survey.depth")(&p).IsDefined())
	_, ok := Compile("amount").Float(&p)
	assert.False(t, ok)
}
