package core

import "testing"

func TestCategoryRegistryBucket(t *testing.T) {
	reg := NewCategoryRegistry(CategoryConfig{
		Needs: []string{"Groceries", "rent"},
		Wants: []string{"Dining", "travel"},
	})

	cases := []struct {
		category string
		want     Bucket
	}{
		{"groceries", BucketNeeds},
		{"GROCERIES", BucketNeeds}, // lookup is case-insensitive
		{"Rent", BucketNeeds},
		{"dining", BucketWants},
		{" Travel ", BucketWants},
		{"charity", BucketNeither},
		{"", BucketNeither},
	}
	for i, tc := range cases {
		if got := reg.Bucket(tc.category); got != tc.want {
			t.Fatalf("case %d: Bucket(%q) = %q, want %q", i, tc.category, got, tc.want)
		}
	}
}

func TestCategoryRegistryNeedsWinsConflicts(t *testing.T) {
	reg := NewCategoryRegistry(CategoryConfig{
		Needs: []string{"emi"},
		Wants: []string{"EMI"},
	})
	if got := reg.Bucket("emi"); got != BucketNeeds {
		t.Fatalf("Bucket(emi) = %q, want needs when a name is in both lists", got)
	}
}

func TestBudgetRuleValidate(t *testing.T) {
	if err := DefaultBudgetRule().Validate(); err != nil {
		t.Fatalf("default rule should validate, got %v", err)
	}
	bads := []BudgetRule{
		{NeedsPercent: 50, WantsPercent: 30, InvestPercent: 30}, // sums to 110
		{NeedsPercent: -10, WantsPercent: 90, InvestPercent: 20},
		{NeedsPercent: 110, WantsPercent: -5, InvestPercent: -5},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPayScheduleValid(t *testing.T) {
	if !PayFirstWeek.Valid() || !PayLastWeek.Valid() {
		t.Fatalf("known schedules should be valid")
	}
	if PaySchedule("mid_month").Valid() {
		t.Fatalf("unknown schedule should be invalid")
	}
}
