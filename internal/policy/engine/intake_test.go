package engine

import (
	"context"
	"testing"
)

func TestIntakeEvaluator_HealthCheck(t *testing.T) {
	e := NewIntakeEvaluator()
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestIntakeEvaluator_CleanApplication(t *testing.T) {
	e := NewIntakeEvaluator()
	res, err := e.Evaluate(context.Background(), IntakeInput{
		Email:    "alice@example.com",
		Services: []string{"media"},
		SourceIP: "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Deny || res.ManualReview {
		t.Errorf("clean application flagged: %+v", res)
	}
}

func TestIntakeEvaluator_BlockedSourceDenied(t *testing.T) {
	e := NewIntakeEvaluator()
	res, err := e.Evaluate(context.Background(), IntakeInput{
		Email:         "mallory@example.com",
		Services:      []string{"media"},
		SourceIP:      "198.51.100.66",
		SourceBlocked: true,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Deny {
		t.Error("blocklisted source should be denied")
	}
}

func TestIntakeEvaluator_BroadRequestFlagged(t *testing.T) {
	e := NewIntakeEvaluator()
	res, err := e.Evaluate(context.Background(), IntakeInput{
		Email:    "bob@example.com",
		Services: []string{"media", "minecraft", "nextcloud"},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Deny {
		t.Error("broad request should not be denied outright")
	}
	if !res.ManualReview {
		t.Error("request for more than two services should be flagged for review")
	}
}

func TestIntakeEvaluator_UnknownServicesFlagged(t *testing.T) {
	e := NewIntakeEvaluator()
	res, err := e.Evaluate(context.Background(), IntakeInput{
		Email:           "carol@example.com",
		Services:        []string{"mystery"},
		UnknownServices: true,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.ManualReview {
		t.Error("unknown service codes should be flagged for review")
	}
}

func TestIntakeEvaluator_BrokenPolicyFallsBackToReview(t *testing.T) {
	e := NewIntakeEvaluatorWithPolicy("package portal.intake\n\nderp {")
	res, err := e.Evaluate(context.Background(), IntakeInput{Email: "x@example.com"})
	if err == nil {
		t.Fatal("broken policy should return an error")
	}
	if !res.ManualReview {
		t.Error("broken policy should fall back to manual review, not silent accept")
	}
}
