package cdpengine

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/devtools-sample/browser-harness/framework"
)

func TestPrimitiveValue(t *testing.T) {
	assert.Equal(t, ldvalue.Null(), primitiveValue(nil))
	assert.Equal(t, ldvalue.Null(), primitiveValue(&runtime.RemoteObject{Type: runtime.TypeUndefined}))
	assert.Equal(t, ldvalue.Int(3), primitiveValue(&runtime.RemoteObject{Type: runtime.TypeNumber, Value: []byte("3")}))
	assert.Equal(t, ldvalue.Bool(false), primitiveValue(&runtime.RemoteObject{Type: runtime.TypeBoolean, Value: []byte("false")}))
	assert.Equal(t, ldvalue.Null(), primitiveValue(&runtime.RemoteObject{Type: runtime.TypeNumber, UnserializableValue: "NaN"}))
}

func TestPrimitiveValueKeepsTruthinessOfUnserializableValues(t *testing.T) {
	for _, v := range []runtime.UnserializableValue{"Infinity", "-Infinity", "1n", "-5n"} {
		o := &runtime.RemoteObject{Type: runtime.TypeNumber, UnserializableValue: v}
		assert.True(t, framework.Truthy(primitiveValue(o)), string(v))
	}
	for _, v := range []runtime.UnserializableValue{"NaN", "-0", "0n"} {
		o := &runtime.RemoteObject{Type: runtime.TypeNumber, UnserializableValue: v}
		assert.False(t, framework.Truthy(primitiveValue(o)), string(v))
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hello", plainText(&runtime.RemoteObject{Type: runtime.TypeString, Value: []byte(`"hello"`)}))
	assert.Equal(t, "42", plainText(&runtime.RemoteObject{Type: runtime.TypeNumber, Value: []byte("42")}))
	assert.Equal(t, "undefined", plainText(&runtime.RemoteObject{Type: runtime.TypeUndefined}))
	assert.Equal(t, "-Infinity", plainText(&runtime.RemoteObject{Type: runtime.TypeNumber, UnserializableValue: "-Infinity"}))
	assert.Equal(t, "Error: boom", plainText(&runtime.RemoteObject{Type: runtime.TypeObject, Subtype: runtime.SubtypeError,
		ObjectID: "1", Description: "Error: boom"}))
	assert.Equal(t, "object", plainText(&runtime.RemoteObject{Type: runtime.TypeObject, ObjectID: "2"}))
}

func TestConsoleMessageText(t *testing.T) {
	s := &session{}
	msg := s.consoleMessage(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeWarning,
		Args: []*runtime.RemoteObject{
			{Type: runtime.TypeString, Value: []byte(`"count"`)},
			{Type: runtime.TypeNumber, Value: []byte("2")},
		},
	})
	assert.Equal(t, "warning", msg.Level)
	assert.Equal(t, "count 2", msg.Text)
	assert.NotNil(t, msg.Resolve)
}

func TestExceptionText(t *testing.T) {
	assert.Equal(t, "Uncaught", exceptionText(&runtime.ExceptionDetails{Text: "Uncaught"}))
	assert.Equal(t, "ReferenceError: x is not defined", exceptionText(&runtime.ExceptionDetails{
		Text:      "Uncaught",
		Exception: &runtime.RemoteObject{Description: "ReferenceError: x is not defined"},
	}))
}
