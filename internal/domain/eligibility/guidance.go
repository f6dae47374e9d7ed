package eligibility

type tierGuidance struct {
	message         string
	recommendations []string
}

var guidance = map[Tier]tierGuidance{
	TierExcellent: {
		message: "Excellent! You have a high chance of loan approval.",
		recommendations: []string{
			"Apply now to lock in the best interest rates available.",
			"You may qualify for collateral-free loans up to higher limits.",
			"Compare offers from multiple lenders to get the best terms.",
		},
	},
	TierGood: {
		message: "Good! You are likely to get your loan approved.",
		recommendations: []string{
			"Keep your admission and income documents ready to speed up processing.",
			"Adding a co-applicant with stable income can improve your terms.",
			"Consider a moderate loan amount to secure a better interest rate.",
		},
	},
	TierAverage: {
		message: "Average. Your loan approval is possible with some improvements.",
		recommendations: []string{
			"Add a co-applicant with a strong income profile.",
			"Offering collateral can significantly improve approval chances.",
			"Talk to our loan advisors to find lenders suited to your profile.",
		},
	},
	TierPoor: {
		message: "Your profile needs strengthening before applying.",
		recommendations: []string{
			"Apply with a co-applicant who meets the lender's age and income criteria.",
			"Explore secured loan options backed by collateral.",
			"Book a free consultation with our advisors to plan your application.",
		},
	},
}
