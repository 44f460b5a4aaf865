package provenance

import (
	"fmt"

	"github.com/BarrensZeppelin/provenance/ir"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/callgraph/vta"
	gopointer "golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// CallGraphKind selects the algorithm that resolves dynamic calls.
type CallGraphKind string

const (
	// Only static calls.
	CallGraphStatic CallGraphKind = "static"
	// Class hierarchy analysis. This is the default.
	CallGraphCHA CallGraphKind = "cha"
	// Variable type analysis, refining CHA.
	CallGraphVTA CallGraphKind = "vta"
	// Andersen-style pointer analysis. Requires main packages.
	CallGraphPointer CallGraphKind = "pointer"
)

var (
	ErrUnknownCallGraph = errors.New("unknown call graph algorithm")
	ErrNoMainPackages   = errors.New("no main packages")
)

func ParseCallGraphKind(s string) (CallGraphKind, error) {
	switch k := CallGraphKind(s); k {
	case "":
		return CallGraphCHA, nil
	case CallGraphStatic, CallGraphCHA, CallGraphVTA, CallGraphPointer:
		return k, nil
	default:
		return "", errors.Wrap(ErrUnknownCallGraph, fmt.Sprintf("%q", s))
	}
}

func buildCallGraph(prog *ssa.Program, kind CallGraphKind) (*callgraph.Graph, error) {
	switch kind {
	case CallGraphStatic:
		return static.CallGraph(prog), nil
	case "", CallGraphCHA:
		return cha.CallGraph(prog), nil
	case CallGraphVTA:
		return vta.CallGraph(ssautil.AllFunctions(prog), cha.CallGraph(prog)), nil
	case CallGraphPointer:
		mains := ssautil.MainPackages(prog.AllPackages())
		if len(mains) == 0 {
			return nil, ErrNoMainPackages
		}
		res, err := gopointer.Analyze(&gopointer.Config{
			Mains:          mains,
			BuildCallGraph: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "pointer analysis")
		}
		return res.CallGraph, nil
	default:
		return nil, errors.Wrap(ErrUnknownCallGraph, string(kind))
	}
}

// graph converts the edges of cg between lowered functions to an ir.Graph.
// Edges from synthetic root nodes, and to functions that were not lowered,
// are dropped.
func (l *lowerer) graph(cg *callgraph.Graph) *ir.Graph {
	g := ir.NewGraph()
	callgraph.GraphVisitEdges(cg, func(e *callgraph.Edge) error {
		if e.Site == nil || e.Callee.Func == nil {
			return nil
		}
		site, callee := l.sites[e.Site], l.methods[e.Callee.Func]
		if site == nil || callee == nil {
			return nil
		}
		g.AddEdge(site, callee)
		return nil
	})
	return g
}
