package refiner

import "testing"

func TestAmbiguousNoTerminalPunctuation(t *testing.T) {
	if !ambiguous("this has no terminator", "and continues here") {
		t.Error("expected ambiguous when left lacks terminal punctuation")
	}
}

func TestAmbiguousAbbreviationSuffix(t *testing.T) {
	if !ambiguous("See Dr.", "Smith arrived early.") {
		t.Error("expected ambiguous after an abbreviation like Dr.")
	}
}

func TestAmbiguousOddQuoteCount(t *testing.T) {
	if !ambiguous(`She said "hello.`, `It was a nice greeting.`) {
		t.Error("expected ambiguous with an unterminated quote")
	}
}

func TestAmbiguousUnbalancedParens(t *testing.T) {
	if !ambiguous("This was true (mostly.", "It continued after.") {
		t.Error("expected ambiguous with an unbalanced open paren")
	}
}

func TestAmbiguousLowercaseContinuation(t *testing.T) {
	if !ambiguous("The data set was large.", "however it was incomplete.") {
		t.Error("expected ambiguous when the next fragment starts lowercase after a period")
	}
}

func TestAmbiguousCleanBoundary(t *testing.T) {
	if ambiguous("This sentence is complete.", "This one starts fresh.") {
		t.Error("did not expect ambiguous for a clean sentence boundary")
	}
}

func TestAmbiguousEmptySideIsNotAmbiguous(t *testing.T) {
	if ambiguous("", "anything") {
		t.Error("empty left side must not be ambiguous")
	}
}
