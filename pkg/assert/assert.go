package assert

import (
	"fmt"
	"reflect"
	"runtime"
)

// NotCircular panics when the calling function already appears further up the stack,
// which happens when a singleton constructor re-enters itself during initialisation.
func NotCircular() {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	self, more := frames.Next()
	for more {
		var f runtime.Frame
		f, more = frames.Next()
		if f.Function == self.Function {
			panic(fmt.Sprintf("circular initialisation detected in %s", self.Function))
		}
	}
}

// NotNil panics if v is nil or a typed nil.
func NotNil(v interface{}) {
	if v == nil {
		panic("unexpected nil value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("unexpected nil %T", v))
		}
	}
}
