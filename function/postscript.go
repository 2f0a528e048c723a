package function

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sbkohel/pdf-dedupe/core"
)

// psOp is one instruction of a compiled calculator program. Conditionals
// carry their branches as nested programs.
type psOp struct {
	name     string
	num      float64
	isNum    bool
	thenProc []psOp
	elseProc []psOp
}

type postScript struct {
	header
	prog []psOp
	n    int
}

const psStackLimit = 100

func newPostScript(h header, src []byte) (*postScript, error) {
	lex := core.NewLexer(src)
	tok, err := lex.NextToken()
	if err != nil || tok.Type != core.TokenKeyword || string(tok.Value) != "{" {
		return nil, errors.New("PostScript function must start with '{'")
	}
	prog, err := compilePS(lex, 0)
	if err != nil {
		return nil, err
	}
	return &postScript{header: h, prog: prog, n: len(h.rng) / 2}, nil
}

// compilePS reads instructions up to the closing brace.
func compilePS(lex *core.Lexer, depth int) ([]psOp, error) {
	if depth > 32 {
		return nil, errors.New("PostScript procedures nested too deep")
	}
	var prog []psOp
	var pending [][]psOp
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case core.TokenEOF:
			return nil, errors.New("unterminated PostScript procedure")
		case core.TokenInteger, core.TokenReal:
			v, _ := strconv.ParseFloat(string(tok.Value), 64)
			prog = append(prog, psOp{num: v, isNum: true})
			continue
		case core.TokenComment:
			continue
		case core.TokenKeyword:
		default:
			return nil, fmt.Errorf("unexpected token %q in PostScript function", tok.Value)
		}
		switch word := string(tok.Value); word {
		case "{":
			proc, err := compilePS(lex, depth+1)
			if err != nil {
				return nil, err
			}
			pending = append(pending, proc)
		case "}":
			return prog, nil
		case "if":
			if len(pending) < 1 {
				return nil, errors.New("if without procedure")
			}
			prog = append(prog, psOp{name: "if", thenProc: pending[len(pending)-1]})
			pending = pending[:0]
		case "ifelse":
			if len(pending) < 2 {
				return nil, errors.New("ifelse without two procedures")
			}
			prog = append(prog, psOp{name: "ifelse", thenProc: pending[len(pending)-2], elseProc: pending[len(pending)-1]})
			pending = pending[:0]
		default:
			prog = append(prog, psOp{name: word})
		}
	}
}

func (f *postScript) Outputs() int { return f.n }

func (f *postScript) Eval(in []float64) []float64 {
	st := &psStack{}
	for _, v := range f.clipIn(in) {
		st.push(v)
	}
	// A failing program leaves whatever it computed; missing outputs are 0.
	_ = st.run(f.prog)
	out := make([]float64, f.n)
	for i := f.n - 1; i >= 0; i-- {
		out[i] = st.pop()
	}
	return f.clipOut(out)
}

type psStack struct {
	vals []float64
}

var errStack = errors.New("PostScript stack error")

func (s *psStack) push(v float64) error {
	if len(s.vals) >= psStackLimit {
		return errStack
	}
	s.vals = append(s.vals, v)
	return nil
}

func (s *psStack) pop() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[len(s.vals)-1]
	s.vals = s.vals[:len(s.vals)-1]
	return v
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (s *psStack) run(prog []psOp) error {
	for _, op := range prog {
		if op.isNum {
			if err := s.push(op.num); err != nil {
				return err
			}
			continue
		}
		if err := s.exec(op); err != nil {
			return err
		}
	}
	return nil
}

func (s *psStack) exec(op psOp) error {
	switch op.name {
	case "if":
		if s.pop() != 0 {
			return s.run(op.thenProc)
		}
		return nil
	case "ifelse":
		if s.pop() != 0 {
			return s.run(op.thenProc)
		}
		return s.run(op.elseProc)
	case "true":
		return s.push(1)
	case "false":
		return s.push(0)
	case "pop":
		s.pop()
		return nil
	case "dup":
		v := s.pop()
		s.push(v)
		return s.push(v)
	case "exch":
		b, a := s.pop(), s.pop()
		s.push(b)
		return s.push(a)
	case "copy":
		n := int(s.pop())
		if n < 0 || n > len(s.vals) {
			return errStack
		}
		for _, v := range append([]float64(nil), s.vals[len(s.vals)-n:]...) {
			if err := s.push(v); err != nil {
				return err
			}
		}
		return nil
	case "index":
		n := int(s.pop())
		if n < 0 || n >= len(s.vals) {
			return errStack
		}
		return s.push(s.vals[len(s.vals)-1-n])
	case "roll":
		j, n := int(s.pop()), int(s.pop())
		if n <= 0 || n > len(s.vals) {
			return errStack
		}
		part := s.vals[len(s.vals)-n:]
		j = ((j % n) + n) % n
		rolled := append(append([]float64(nil), part[n-j:]...), part[:n-j]...)
		copy(part, rolled)
		return nil
	}

	if fn, ok := unaryOps[op.name]; ok {
		return s.push(fn(s.pop()))
	}
	if fn, ok := binaryOps[op.name]; ok {
		b, a := s.pop(), s.pop()
		return s.push(fn(a, b))
	}
	return fmt.Errorf("unknown PostScript operator %q", op.name)
}

var unaryOps = map[string]func(float64) float64{
	"abs":      math.Abs,
	"neg":      func(a float64) float64 { return -a },
	"ceiling":  math.Ceil,
	"floor":    math.Floor,
	"round":    func(a float64) float64 { return math.Floor(a + 0.5) },
	"truncate": math.Trunc,
	"cvi":      math.Trunc,
	"cvr":      func(a float64) float64 { return a },
	"sqrt":     func(a float64) float64 { return math.Sqrt(math.Max(a, 0)) },
	"sin":      func(a float64) float64 { return math.Sin(a * math.Pi / 180) },
	"cos":      func(a float64) float64 { return math.Cos(a * math.Pi / 180) },
	"ln":       math.Log,
	"log":      math.Log10,
	"not": func(a float64) float64 {
		// Booleans are 0 and 1; other integers are complemented bitwise.
		switch a {
		case 0:
			return 1
		case 1:
			return 0
		}
		return float64(^int64(a))
	},
}

var binaryOps = map[string]func(a, b float64) float64{
	"add": func(a, b float64) float64 { return a + b },
	"sub": func(a, b float64) float64 { return a - b },
	"mul": func(a, b float64) float64 { return a * b },
	"div": func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		return a / b
	},
	"idiv": func(a, b float64) float64 {
		if int64(b) == 0 {
			return 0
		}
		return float64(int64(a) / int64(b))
	},
	"mod": func(a, b float64) float64 {
		if int64(b) == 0 {
			return 0
		}
		return float64(int64(a) % int64(b))
	},
	"exp": math.Pow,
	"atan": func(a, b float64) float64 {
		deg := math.Atan2(a, b) * 180 / math.Pi
		if deg < 0 {
			deg += 360
		}
		return deg
	},
	"eq":  func(a, b float64) float64 { return boolVal(a == b) },
	"ne":  func(a, b float64) float64 { return boolVal(a != b) },
	"gt":  func(a, b float64) float64 { return boolVal(a > b) },
	"ge":  func(a, b float64) float64 { return boolVal(a >= b) },
	"lt":  func(a, b float64) float64 { return boolVal(a < b) },
	"le":  func(a, b float64) float64 { return boolVal(a <= b) },
	"and": func(a, b float64) float64 { return float64(int64(a) & int64(b)) },
	"or":  func(a, b float64) float64 { return float64(int64(a) | int64(b)) },
	"xor": func(a, b float64) float64 { return float64(int64(a) ^ int64(b)) },
	"bitshift": func(a, b float64) float64 {
		if b >= 0 {
			return float64(int64(a) << uint(b))
		}
		return float64(int64(a) >> uint(-b))
	},
}
