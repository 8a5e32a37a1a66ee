package build

import (
	"encoding/gob"

	"github.com/mrzdevcore/haira/mir"
	"github.com/mrzdevcore/haira/typing"
)

// init registers every concrete type that can appear behind mir's Instr,
// Terminator, and Value interfaces, plus typing's DataType implementors
// (every mir node carries a typing.DataType), so MIRCache can gob-encode a
// *mir.Func. Mirrors gob_register.go's reasoning for the AST cache.
func init() {
	gob.Register(&mir.OperInstr{})
	gob.Register(&mir.FieldInstr{})
	gob.Register(&mir.IndexInstr{})
	gob.Register(&mir.FieldAssign{})
	gob.Register(&mir.ConstructInstr{})
	gob.Register(&mir.ListInstr{})
	gob.Register(&mir.MapInstr{})
	gob.Register(&mir.CollectionInstr{})

	gob.Register(&mir.GotoTerm{})
	gob.Register(&mir.IfTerm{})
	gob.Register(&mir.SwitchTerm{})
	gob.Register(&mir.CallTerm{})
	gob.Register(&mir.ReturnTerm{})
	gob.Register(&mir.UnreachableTerm{})

	gob.Register(mir.Const{})
	gob.Register(mir.Ref{})
	gob.Register(mir.Param{})

	gob.Register(typing.PrimType{})
	gob.Register(typing.ListType{})
	gob.Register(typing.MapType{})
	gob.Register(typing.OptionType{})
	gob.Register(typing.FuncType{})
	gob.Register(&typing.RecordType{})
	gob.Register(&typing.UnionType{})
	gob.Register(&typing.TypeVar{})

	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
}
