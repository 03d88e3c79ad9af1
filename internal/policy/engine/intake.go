// Package engine screens access applications with OPA Rego policies.
package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const intakePolicyPackage = "portal.intake"

// Default intake policy: deny applications from blocklisted addresses, and
// flag broad requests for manual review. Operators can replace it via
// NewIntakeEvaluatorWithPolicy.
const defaultIntakePolicy = `package portal.intake

default deny = false
default manual_review = false

deny if {
	input.source.blocked
}

manual_review if {
	count(input.request.services) > 2
}

manual_review if {
	input.request.unknown_services
}
`

// IntakeInput is the policy input for one submitted application.
type IntakeInput struct {
	Email           string
	Services        []string
	SourceIP        string
	SourceBlocked   bool
	UnknownServices bool
}

// IntakeResult is the screening outcome. Deny wins over ManualReview.
type IntakeResult struct {
	Deny         bool
	ManualReview bool
}

// IntakeEvaluator evaluates the intake screening policy in-process.
type IntakeEvaluator struct {
	policy string
}

// NewIntakeEvaluator returns an evaluator using the default intake policy.
func NewIntakeEvaluator() *IntakeEvaluator {
	return &IntakeEvaluator{policy: defaultIntakePolicy}
}

// NewIntakeEvaluatorWithPolicy returns an evaluator using the given Rego
// module, which must define deny and manual_review in package portal.intake.
func NewIntakeEvaluatorWithPolicy(policy string) *IntakeEvaluator {
	return &IntakeEvaluator{policy: policy}
}

// HealthCheck verifies that the Rego engine can compile and evaluate the
// configured policy. Returns nil on success.
func (e *IntakeEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, IntakeInput{})
	return err
}

// Evaluate screens one application. On evaluation failure the application is
// not denied silently: the error is returned and the caller falls back to
// manual review.
func (e *IntakeEvaluator) Evaluate(ctx context.Context, in IntakeInput) (IntakeResult, error) {
	res, err := e.eval(ctx, in)
	if err != nil {
		log.Printf("policy: intake evaluation failed: %v", err)
		return IntakeResult{ManualReview: true}, err
	}
	return res, nil
}

func (e *IntakeEvaluator) eval(ctx context.Context, in IntakeInput) (IntakeResult, error) {
	compiler, err := ast.CompileModules(map[string]string{"intake.rego": e.policy})
	if err != nil {
		return IntakeResult{}, fmt.Errorf("compile intake policy: %w", err)
	}

	services := in.Services
	if services == nil {
		services = []string{}
	}
	input := map[string]interface{}{
		"applicant": map[string]interface{}{
			"email": in.Email,
		},
		"request": map[string]interface{}{
			"services":         services,
			"unknown_services": in.UnknownServices,
		},
		"source": map[string]interface{}{
			"ip":      in.SourceIP,
			"blocked": in.SourceBlocked,
		},
	}

	var out IntakeResult
	for query, dst := range map[string]*bool{
		"data." + intakePolicyPackage + ".deny":          &out.Deny,
		"data." + intakePolicyPackage + ".manual_review": &out.ManualReview,
	} {
		q := rego.New(
			rego.Query(query),
			rego.Compiler(compiler),
			rego.Input(input),
		)
		rs, err := q.Eval(ctx)
		if err != nil {
			return IntakeResult{}, fmt.Errorf("eval %s: %w", query, err)
		}
		if len(rs) == 0 || len(rs[0].Expressions) == 0 {
			return IntakeResult{}, fmt.Errorf("policy query %s returned no result", query)
		}
		v, ok := rs[0].Expressions[0].Value.(bool)
		if !ok {
			return IntakeResult{}, fmt.Errorf("policy query %s returned non-boolean %T", query, rs[0].Expressions[0].Value)
		}
		*dst = v
	}
	return out, nil
}
