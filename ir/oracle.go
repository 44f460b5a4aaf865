package ir

import "github.com/BarrensZeppelin/provenance/internal/queue"

// Oracle answers which instructions produce and consume stack values.
type Oracle interface {
	// Producers returns the instructions whose pushed value may flow into
	// the given operand of instr.
	Producers(m *Method, instr *Instruction, operand int) []*Instruction
	// Consumers returns the instructions that may consume the value pushed
	// by instr.
	Consumers(m *Method, instr *Instruction) []*Instruction
}

// NewOracle returns an oracle over operand links. Joins are transparent:
// the producers of a join's inputs produce for every consumer of the join.
// Results are cached per instruction.
func NewOracle() Oracle {
	return &oracle{
		producers: make(map[*Instruction][][]*Instruction),
		users:     make(map[*Method]map[*Instruction][]*Instruction),
		consumers: make(map[*Instruction][]*Instruction),
	}
}

type oracle struct {
	producers map[*Instruction][][]*Instruction
	users     map[*Method]map[*Instruction][]*Instruction
	consumers map[*Instruction][]*Instruction
}

func (o *oracle) Producers(m *Method, instr *Instruction, operand int) []*Instruction {
	if operand < 0 || operand >= len(instr.Operands) {
		return nil
	}

	cached, ok := o.producers[instr]
	if !ok {
		cached = make([][]*Instruction, len(instr.Operands))
		for i, op := range instr.Operands {
			cached[i] = Sources(op)
		}
		o.producers[instr] = cached
	}
	return cached[operand]
}

func (o *oracle) Consumers(m *Method, instr *Instruction) []*Instruction {
	if res, ok := o.consumers[instr]; ok {
		return res
	}

	users, ok := o.users[m]
	if !ok {
		users = make(map[*Instruction][]*Instruction)
		for _, i := range m.Body {
			for _, op := range i.Operands {
				if op != nil {
					users[op] = append(users[op], i)
				}
			}
		}
		o.users[m] = users
	}

	var res []*Instruction
	seen := map[*Instruction]bool{}
	for _, u := range users[instr] {
		for _, c := range resolve(u, func(j *Instruction) []*Instruction { return users[j] }) {
			if !seen[c] {
				seen[c] = true
				res = append(res, c)
			}
		}
	}
	o.consumers[instr] = res
	return res
}

// Sources returns the instructions that may have pushed the value of instr,
// looking through joins.
func Sources(instr *Instruction) []*Instruction {
	return resolve(instr, func(j *Instruction) []*Instruction { return j.Operands })
}

// resolve returns the non-join instructions reachable from start, following
// next through joins.
func resolve(start *Instruction, next func(*Instruction) []*Instruction) []*Instruction {
	if start == nil {
		return nil
	}
	if start.Op != OpJoin {
		return []*Instruction{start}
	}

	var res []*Instruction
	visited := map[*Instruction]bool{start: true}
	var q queue.Queue[*Instruction]
	q.Push(start)
	for !q.Empty() {
		j := q.Pop()
		for _, n := range next(j) {
			if n == nil || visited[n] {
				continue
			}
			visited[n] = true
			if n.Op == OpJoin {
				q.Push(n)
			} else {
				res = append(res, n)
			}
		}
	}
	return res
}
