package lang_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ardnew/scribe/lang"
)

func Example() {
	globals := lang.NewMap().
		SetString("name", "steve").
		SetMap("player", lang.NewMap().SetNumber("health", 17)).
		SetFunc("upper", func(vm *lang.VM, argc int) (lang.Value, error) {
			s, err := vm.PopString("Argument to upper() needs to be a string.")
			if err != nil {
				return lang.Null, err
			}

			return lang.String(strings.ToUpper(s)), nil
		})

	out, err := lang.NewRuntime(globals).Eval(context.Background(),
		"Hello {upper(name)}, health {player.health > 10 ? 'ok' : 'low'}")
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(out)
	// Output: Hello STEVE, health ok
}

func Example_sections() {
	rt := lang.NewRuntime(lang.NewMap().SetNumber("n", 2))

	out, err := rt.Eval(context.Background(), "head #1 one {n} #2 two {n * 2}")
	if err != nil {
		fmt.Println(err)

		return
	}

	for s := range out.All() {
		fmt.Printf("%d %q\n", s.Index, s.Text)
	}
	// Output:
	// 0 "head "
	// 1 " one 2 "
	// 2 " two 4"
}

func Example_diagnostics() {
	res := lang.Parse(context.Background(), "total: {price *}")

	for _, d := range res.Errors {
		fmt.Println(d)
	}
	// Output: line 1, column 15: Expected expression.
}

func ExampleProgram_Disassemble() {
	prog, err := lang.CompileString(context.Background(), "{a.b}")
	if err != nil {
		fmt.Println(err)

		return
	}

	_ = prog.Disassemble(os.Stdout)
	// Output:
	// 0000 VariableGetAppend  0 1 'a.b'
	// 0003 End
}
