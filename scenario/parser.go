package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     Position
	Message string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// ParseResult contains the parsed scenario and any diagnostics.
type ParseResult struct {
	Scenario   *Scenario
	Statements []Statement
	Errors     []*ParseError
	Warnings   []*ParseError
}

// HasErrors returns true if there were parse errors.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err joins the parse errors, or returns nil.
func (r *ParseResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Parser parses scenario files.
type Parser struct {
	filename string
	scenario *Scenario
	errors   []*ParseError
	warnings []*ParseError
}

// Load reads a scenario file and fails on any parse error.
func Load(filename string) (*Scenario, error) {
	result, err := ParseFile(filename)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return result.Scenario, nil
}

// ParseFile reads and parses a scenario file from disk.
func ParseFile(filename string) (*ParseResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return ParseContent(filename, data)
}

// ParseContent parses scenario content from bytes.
func ParseContent(filename string, content []byte) (*ParseResult, error) {
	p := &Parser{filename: filename, scenario: &Scenario{Path: filename}}
	return p.parse(content)
}

func (p *Parser) parse(content []byte) (*ParseResult, error) {
	raw, err := build.ParseDefault(p.filename, content)
	if err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: p.filename},
			Message: fmt.Sprintf("syntax error: %v", err),
			Wrapped: err,
		}
	}

	result := &ParseResult{Scenario: p.scenario}
	for _, stmt := range raw.Stmt {
		if s := p.parseStatement(stmt); s != nil {
			result.Statements = append(result.Statements, s)
		}
	}
	if p.scenario.Root == nil {
		p.addError(Position{Filename: p.filename}, "scenario has no root() statement")
	}

	result.Errors = p.errors
	result.Warnings = p.warnings
	return result, nil
}

func (p *Parser) parseStatement(expr build.Expr) Statement {
	if _, ok := expr.(*build.CommentBlock); ok {
		return nil
	}
	call, ok := expr.(*build.CallExpr)
	if !ok {
		p.addWarning(p.position(expr), "ignoring statement that is not a call")
		return nil
	}
	pos := p.position(call)

	fn, ok := call.X.(*build.Ident)
	if !ok {
		p.addWarning(pos, "ignoring call to a non-identifier")
		return nil
	}

	switch fn.Name {
	case "root":
		return p.parseRoot(call, pos)
	case "component":
		return p.parseComponent(call, pos)
	case "node":
		return p.parseNode(call, pos)
	case "depends":
		return p.parseEdge(call, pos)
	case "replace":
		return p.parseReplace(call, pos)
	case "capability_rule":
		return p.parseCapabilityRule(call, pos)
	case "strategy":
		return p.parseStrategy(call, pos)
	case "exclude_any":
		return p.parseExclude(call, pos, false)
	case "exclude_all":
		return p.parseExclude(call, pos, true)
	case "probe":
		return p.parseProbe(call, pos)
	default:
		p.addWarning(pos, "unknown function %q", fn.Name)
		return nil
	}
}

func (p *Parser) parseRoot(call *build.CallExpr, pos Position) Statement {
	if p.scenario.Root != nil {
		p.addError(pos, "root() declared more than once")
		return nil
	}
	c := p.component(call, pos)
	if c == nil {
		return nil
	}
	c.Variant = p.getString(call, "variant")
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	p.scenario.Root = c
	p.scenario.Components = append(p.scenario.Components, c)
	return c
}

func (p *Parser) parseComponent(call *build.CallExpr, pos Position) Statement {
	c := p.component(call, pos)
	if c == nil {
		return nil
	}
	c.Status = p.getString(call, "status")
	c.Project = p.getString(call, "project")
	p.scenario.Components = append(p.scenario.Components, c)
	return c
}

func (p *Parser) component(call *build.CallExpr, pos Position) *Component {
	id, ok := p.requireCoordinates(call, pos, "coordinates")
	if !ok {
		return nil
	}
	for _, c := range p.scenario.Components {
		if c.Coordinates == id {
			p.addError(pos, "component %s declared more than once", id)
			return nil
		}
	}
	return &Component{Pos: pos, Coordinates: id}
}

func (p *Parser) parseNode(call *build.CallExpr, pos Position) Statement {
	id, ok := p.requireCoordinates(call, pos, "component")
	if !ok {
		return nil
	}
	n := &Node{Pos: pos, Component: id, Variant: p.getString(call, "variant")}
	if n.Variant == "" {
		n.Variant = DefaultVariant
	}
	for _, s := range p.getStringList(call, "capabilities") {
		capability, err := ident.ParseCapability(s)
		if err != nil {
			p.addError(pos, "node %s(%s): %v", id, n.Variant, err)
			continue
		}
		n.Capabilities = append(n.Capabilities, capability)
	}
	p.scenario.Nodes = append(p.scenario.Nodes, n)
	return n
}

func (p *Parser) parseEdge(call *build.CallExpr, pos Position) Statement {
	source, ok := p.requireCoordinates(call, pos, "source")
	if !ok {
		return nil
	}
	target, ok := p.requireCoordinates(call, pos, "target")
	if !ok {
		return nil
	}
	e := &Edge{
		Pos:           pos,
		Source:        source,
		SourceVariant: p.getString(call, "source_variant"),
		Target:        target,
		TargetVariant: p.getString(call, "target_variant"),
	}
	if e.SourceVariant == "" {
		e.SourceVariant = DefaultVariant
	}
	if e.TargetVariant == "" {
		e.TargetVariant = DefaultVariant
	}
	p.scenario.Edges = append(p.scenario.Edges, e)
	return e
}

func (p *Parser) parseReplace(call *build.CallExpr, pos Position) Statement {
	module, ok := p.requireModuleID(call, pos, "module")
	if !ok {
		return nil
	}
	by, ok := p.requireModuleID(call, pos, "by")
	if !ok {
		return nil
	}
	r := &Replacement{Pos: pos, Module: module, By: by, Reason: p.getString(call, "reason")}
	p.scenario.Replacements = append(p.scenario.Replacements, r)
	return r
}

func (p *Parser) parseCapabilityRule(call *build.CallExpr, pos Position) Statement {
	capability, ok := p.requireModuleID(call, pos, "capability")
	if !ok {
		return nil
	}
	r := &CapabilityRule{
		Pos:        pos,
		Capability: capability,
		Select:     p.getString(call, "select"),
		Highest:    p.getBool(call, "highest"),
		Because:    p.getString(call, "because"),
	}
	if r.Select != "" && r.Highest {
		p.addError(pos, "capability_rule for %s: select and highest are mutually exclusive", capability)
		return nil
	}
	p.scenario.Rules = append(p.scenario.Rules, r)
	return r
}

func (p *Parser) parseStrategy(call *build.CallExpr, pos Position) Statement {
	if p.scenario.Strategy != nil {
		p.addError(pos, "strategy() declared more than once")
		return nil
	}
	s := &Strategy{Pos: pos, Conflicts: p.getString(call, "conflicts"), Versions: p.getString(call, "versions")}
	switch s.Conflicts {
	case "":
		s.Conflicts = StrategyLatest
	case StrategyLatest, StrategyFail, StrategyPreferProject:
	default:
		p.addError(pos, "unknown conflict strategy %q", s.Conflicts)
		return nil
	}
	switch s.Versions {
	case "":
		s.Versions = VersionsDefault
	case VersionsDefault, VersionsSemantic:
	default:
		p.addError(pos, "unknown version comparator %q", s.Versions)
		return nil
	}
	p.scenario.Strategy = s
	return s
}

func (p *Parser) parseExclude(call *build.CallExpr, pos Position, all bool) Statement {
	name := p.getString(call, "name")
	if name == "" {
		p.addError(pos, "exclude expression requires a name")
		return nil
	}
	d := &ExcludeDecl{
		Pos:     pos,
		Name:    name,
		All:     all,
		Groups:  p.getStringList(call, "groups"),
		Modules: p.getStringList(call, "modules"),
		Of:      p.getStringList(call, "of"),
	}
	for _, s := range p.getStringList(call, "module_ids") {
		id, err := ident.ParseModuleID(s)
		if err != nil {
			p.addError(pos, "exclude %s: %v", name, err)
			continue
		}
		d.ModuleIDs = append(d.ModuleIDs, id)
	}

	known := make(map[string]bool, len(p.scenario.Excludes))
	for _, prev := range p.scenario.Excludes {
		known[prev.Name] = true
	}
	if known[name] {
		p.addError(pos, "exclude %s declared more than once", name)
		return nil
	}
	for _, ref := range d.Of {
		if !known[ref] {
			p.addError(pos, "exclude %s refers to undeclared exclude %q", name, ref)
		}
	}
	p.scenario.Excludes = append(p.scenario.Excludes, d)
	return d
}

func (p *Parser) parseProbe(call *build.CallExpr, pos Position) Statement {
	probe := &Probe{Pos: pos}
	for _, s := range p.getStringList(call, "modules") {
		id, err := ident.ParseModuleID(s)
		if err != nil {
			p.addError(pos, "probe: %v", err)
			continue
		}
		probe.Modules = append(probe.Modules, id)
	}
	p.scenario.Probes = append(p.scenario.Probes, probe.Modules...)
	return probe
}

func (p *Parser) requireCoordinates(call *build.CallExpr, pos Position, name string) (ident.ModuleVersionID, bool) {
	s := p.getString(call, name)
	if s == "" {
		p.addError(pos, "missing required attribute %q", name)
		return ident.ModuleVersionID{}, false
	}
	id, err := ident.ParseModuleVersionID(s)
	if err != nil {
		p.addError(pos, "%s: %v", name, err)
		return ident.ModuleVersionID{}, false
	}
	return id, true
}

func (p *Parser) requireModuleID(call *build.CallExpr, pos Position, name string) (ident.ModuleID, bool) {
	s := p.getString(call, name)
	if s == "" {
		p.addError(pos, "missing required attribute %q", name)
		return ident.ModuleID{}, false
	}
	id, err := ident.ParseModuleID(s)
	if err != nil {
		p.addError(pos, "%s: %v", name, err)
		return ident.ModuleID{}, false
	}
	return id, true
}

func (p *Parser) position(expr build.Expr) Position {
	start, _ := expr.Span()
	return Position{
		Filename: p.filename,
		Line:     start.Line,
		Column:   start.LineRune,
	}
}

func (p *Parser) addError(pos Position, format string, args ...any) {
	p.errors = append(p.errors, &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) addWarning(pos Position, format string, args ...any) {
	p.warnings = append(p.warnings, &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) attr(call *build.CallExpr, name string) build.Expr {
	for _, arg := range call.List {
		if assign, ok := arg.(*build.AssignExpr); ok {
			if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
				return assign.RHS
			}
		}
	}
	return nil
}

func (p *Parser) getString(call *build.CallExpr, name string) string {
	if str, ok := p.attr(call, name).(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

func (p *Parser) getBool(call *build.CallExpr, name string) bool {
	if id, ok := p.attr(call, name).(*build.Ident); ok {
		return id.Name == "True"
	}
	return false
}

func (p *Parser) getStringList(call *build.CallExpr, name string) []string {
	list, ok := p.attr(call, name).(*build.ListExpr)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		if str, ok := elem.(*build.StringExpr); ok {
			result = append(result, str.Value)
		}
	}
	return result
}
