package gate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/gate"
)

var _ = Describe("IsUrgentKey", func() {
	DescribeTable("key markers",
		func(raw string, urgent bool, normalized string) {
			gotUrgent, gotKey := gate.IsUrgentKey(raw)
			Expect(gotUrgent).To(Equal(urgent))
			Expect(gotKey).To(Equal(normalized))
		},
		Entry("marked", "!PROJ-9", true, "PROJ-9"),
		Entry("unmarked", "PROJ-9", false, "PROJ-9"),
		Entry("strips exactly one marker", "!!PROJ-9", true, "!PROJ-9"),
		Entry("marker not leading", "PROJ-9!", false, "PROJ-9!"),
		Entry("empty", "", false, ""),
		Entry("marker only", "!", true, ""),
	)
})

var _ = Describe("IsUrgentPullRequest", func() {
	var pr *domain.PullRequest

	BeforeEach(func() {
		pr = &domain.PullRequest{
			URL:          "https://github.com/acme/shop/pull/7",
			Title:        "Add checkout",
			Body:         "Implements the new checkout flow",
			Labels:       []string{"feature"},
			TargetBranch: "main",
		}
	})

	It("should not be urgent without markers", func() {
		Expect(gate.IsUrgentPullRequest(pr)).To(BeFalse())
		Expect(gate.PullRequestUrgency(pr)).To(Equal(domain.UrgencyReasonNone))
	})

	It("should be urgent with the urgent label", func() {
		pr.Labels = append(pr.Labels, "urgent")
		Expect(gate.IsUrgentPullRequest(pr)).To(BeTrue())
		Expect(gate.PullRequestUrgency(pr)).To(Equal(domain.UrgencyReasonLabel))
	})

	It("should match the label case-sensitively", func() {
		pr.Labels = []string{"Urgent", "URGENT"}
		Expect(gate.IsUrgentPullRequest(pr)).To(BeFalse())
	})

	It("should be urgent with a title starting with the marker", func() {
		pr.Title = "!" + pr.Title
		Expect(gate.IsUrgentPullRequest(pr)).To(BeTrue())
		Expect(gate.PullRequestUrgency(pr)).To(Equal(domain.UrgencyReasonTitle))
	})

	It("should treat an empty title as not urgent", func() {
		pr.Title = ""
		Expect(func() { gate.IsUrgentPullRequest(pr) }).NotTo(Panic())
		Expect(gate.IsUrgentPullRequest(pr)).To(BeFalse())
	})

	It("should be urgent with the body token in any case", func() {
		pr.Body = "Hotfix for prod. !URGENT please"
		Expect(gate.IsUrgentPullRequest(pr)).To(BeTrue())
		Expect(gate.PullRequestUrgency(pr)).To(Equal(domain.UrgencyReasonBody))
	})

	It("should report the label before the title and body", func() {
		pr.Labels = []string{"urgent"}
		pr.Title = "!fix"
		pr.Body = "!urgent"
		Expect(gate.PullRequestUrgency(pr)).To(Equal(domain.UrgencyReasonLabel))
	})

	It("should report the title before the body", func() {
		pr.Title = "!fix"
		pr.Body = "!urgent"
		Expect(gate.PullRequestUrgency(pr)).To(Equal(domain.UrgencyReasonTitle))
	})
})
