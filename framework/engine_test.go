package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func TestTruthy(t *testing.T) {
	falsy := []ldvalue.Value{
		ldvalue.Null(),
		ldvalue.Bool(false),
		ldvalue.Int(0),
		ldvalue.Float64(0),
		ldvalue.String(""),
	}
	for _, v := range falsy {
		assert.False(t, Truthy(v), v.JSONString())
	}

	truthy := []ldvalue.Value{
		ldvalue.Bool(true),
		ldvalue.Int(1),
		ldvalue.Int(-1),
		ldvalue.Float64(0.5),
		ldvalue.String("0"),
		ldvalue.ArrayOf(),
		ldvalue.ObjectBuild().Build(),
	}
	for _, v := range truthy {
		assert.True(t, Truthy(v), v.JSONString())
	}
}

func TestTruthyForParsedPageValues(t *testing.T) {
	assert.True(t, Truthy(ldvalue.Parse([]byte("2"))))
	assert.False(t, Truthy(ldvalue.Parse([]byte("null"))))
	assert.False(t, Truthy(ldvalue.Parse([]byte("false"))))
}

func TestFailureIndicatorExpression(t *testing.T) {
	assert.Equal(t, `window["test-failures"]`, FailureIndicatorExpression("test-failures"))
	assert.Equal(t, `window["a\"b"]`, FailureIndicatorExpression(`a"b`))
}

func TestHTTPStatusError(t *testing.T) {
	assert.Equal(t, "page returned HTTP status 404", HTTPStatusError{Status: 404}.Error())
}

func TestUnserializableValue(t *testing.T) {
	assert.Equal(t, ldvalue.Null(), UnserializableValue("NaN"))
	assert.Equal(t, ldvalue.Int(0), UnserializableValue("-0"))
	assert.Equal(t, ldvalue.String("Infinity"), UnserializableValue("Infinity"))
	assert.True(t, Truthy(UnserializableValue("-Infinity")))
	assert.True(t, Truthy(UnserializableValue("10n")))
	assert.False(t, Truthy(UnserializableValue("0n")))
}
