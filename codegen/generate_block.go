package codegen

import (
	"fmt"

	"github.com/mrzdevcore/haira/mir"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// generateBody lowers a mir.Func's basic blocks into llFn's body. Every
// mir.Block becomes one ir.Block; every mir.Param becomes an ir.Phi sitting
// at the top of its block, the LLVM-level realization of the block argument
// a predecessor edge supplies. Because mir.Build numbers param/temp names
// uniquely across the whole function (never reusing a name across two
// blocks), a single flat value table built up as blocks are visited in
// order is enough to resolve every later reference.
func (g *Generator) generateBody(fn *mir.Func, llFn *ir.Func) error {
	llBlocks := make([]*ir.Block, len(fn.Blocks))
	for i, blk := range fn.Blocks {
		llBlocks[i] = llFn.NewBlock(fmt.Sprintf("bb%d", blk.ID))
	}

	vals := map[string]value.Value{}
	for i, p := range llFn.Params {
		vals[fn.Params[i].Name] = p
	}

	phis := map[int][]*ir.InstPhi{}
	for i, blk := range fn.Blocks {
		ps := make([]*ir.InstPhi, len(blk.Params))
		for j, p := range blk.Params {
			phi := llBlocks[i].NewPhi()
			phi.Typ = g.convType(p.Typ)
			ps[j] = phi
			vals[p.Name] = phi
		}
		phis[blk.ID] = ps
	}

	blockByID := make(map[int]*ir.Block, len(llBlocks))
	for i, blk := range fn.Blocks {
		blockByID[blk.ID] = llBlocks[i]
	}

	for i, blk := range fn.Blocks {
		llBlock := llBlocks[i]
		for _, instr := range blk.Instrs {
			v, err := g.generateInstr(llBlock, instr, vals)
			if err != nil {
				return err
			}
			if v != nil {
				vals[instr.Result()] = v
			}
		}
		if err := g.generateTerm(llBlock, blk.Term, vals, blockByID, phis); err != nil {
			return err
		}
	}
	return nil
}
