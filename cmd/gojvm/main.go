// Command gojvm loads one class file and interprets a single static method
// on it, printing the method's return value. It is a diagnostic driver, not
// a java launcher: there is no java.lang bootstrap, no String[] args array,
// and no instance dispatch (see SPEC_FULL.md §6 Non-goals).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gojvm/gojvm/internal/trace"
	"github.com/gojvm/gojvm/pkg/classloader"
	"github.com/gojvm/gojvm/pkg/interpreter"
	"github.com/gojvm/gojvm/pkg/rtda"
)

func main() {
	classpath := flag.String("classpath", ".", "colon-separated list of classpath roots")
	method := flag.String("method", "main", "name of the static method to invoke")
	descriptor := flag.String("descriptor", "()I", "JVMS method descriptor of the method to invoke")
	args := flag.String("args", "", "comma-separated int arguments to pass, in declaration order")
	verbose := flag.Bool("v", false, "enable trace logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <ClassName>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*verbose {
		trace.SetOutput(io.Discard)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	className := flag.Arg(0)

	area := rtda.NewMethodArea()
	boot := classloader.NewBootstrapLoader("bootstrap", strings.Split(*classpath, ":"), area)

	klass, err := boot.LoadClass(className)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojvm: %v\n", err)
		os.Exit(1)
	}

	m := klass.FindMethod(*method, *descriptor)
	if m == nil {
		fmt.Fprintf(os.Stderr, "gojvm: no method %s%s on %s\n", *method, *descriptor, className)
		os.Exit(1)
	}

	argSlots, err := parseIntArgs(*args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojvm: %v\n", err)
		os.Exit(1)
	}

	result, err := interpreter.New().InvokeStatic(m, argSlots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojvm: %v\n", err)
		os.Exit(1)
	}

	printResult(*descriptor, result)
}

func parseIntArgs(csv string) ([]rtda.Slot, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	slots := make([]rtda.Slot, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int argument %q: %w", p, err)
		}
		slots[i] = rtda.IntSlot(int32(v))
	}
	return slots, nil
}

func printResult(descriptor string, result rtda.Slot) {
	switch interpreter.ReturnCategory(descriptor) {
	case 'V':
		return
	case 'J':
		fmt.Println(result.Long())
	case 'F':
		fmt.Println(result.Float())
	case 'D':
		fmt.Println(result.Double())
	case 'A':
		fmt.Println(result.Ref())
	default:
		fmt.Println(result.Int())
	}
}
