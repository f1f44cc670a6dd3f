package core

import (
	"github.com/roach88/archpass/internal/calling"
	"github.com/roach88/archpass/internal/dflow"
	"github.com/roach88/archpass/internal/ir"
)

// Context is the state of one analysis run.
type Context struct {
	module      *Module
	program     *ir.Program
	conventions *calling.Conventions
	hooks       *calling.Hooks
	dataflows   map[*ir.Function]*dflow.Dataflow
}

// NewContext creates a run context over program with an empty convention
// registry and no dataflow results.
func NewContext(module *Module, program *ir.Program) *Context {
	conventions := calling.NewConventions()
	return &Context{
		module:      module,
		program:     program,
		conventions: conventions,
		hooks:       calling.NewHooks(conventions),
		dataflows:   make(map[*ir.Function]*dflow.Dataflow),
	}
}

// Module returns the module being analyzed.
func (c *Context) Module() *Module { return c.module }

// Program returns the IR program.
func (c *Context) Program() *ir.Program { return c.program }

// Conventions returns the run's calling convention registry.
func (c *Context) Conventions() *calling.Conventions { return c.conventions }

// Hooks returns call hooks backed by the run's convention registry.
func (c *Context) Hooks() *calling.Hooks { return c.hooks }

// SetDataflow stores df as the result for fn, replacing any previous one.
func (c *Context) SetDataflow(fn *ir.Function, df *dflow.Dataflow) {
	c.dataflows[fn] = df
}

// Dataflow returns the stored result for fn, or nil.
func (c *Context) Dataflow(fn *ir.Function) *dflow.Dataflow {
	return c.dataflows[fn]
}
