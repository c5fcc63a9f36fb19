package rubric

// staticCategories is the built-in catalog applied to every press release.
var staticCategories = []Category{
	{
		Key:         "source_credibility",
		DisplayName: "Source Credibility",
		Questions: []string{
			"To what extent is the issuer reputable and trustworthy (1 = no credibility, 6 = highly reputable and trusted)?",
			"How transparent is the organization about its identity (1 = unclear/hidden, 6 = fully transparent)?",
			"How reliable is the organization's history of accuracy and honesty (1 = frequently inaccurate, 6 = consistently accurate)?",
			"How accessible and verifiable is the point of contact provided (1 = no contact/unverifiable, 6 = clear, responsive, and verifiable)?",
			"How credible and relevant are the experts or references cited (1 = none/irrelevant, 6 = highly credible and relevant)?",
			"How appropriate is the timing of the release (1 = appears manipulative/self-serving, 6 = timely and appropriate)?",
		},
	},
	{
		Key:         "accuracy_evidence",
		DisplayName: "Accuracy & Evidence",
		Questions: []string{
			"How well are the stated facts supported by verifiable data (1 = unsupported, 6 = fully verifiable with strong data)?",
			"How clearly are statistics sourced and methodologies explained (1 = no sources/methods, 6 = full transparency and clarity)?",
			"How much independent confirmation supports the claims (1 = none, 6 = multiple independent confirmations)?",
			"How authentic and attributable are the included quotes (1 = vague/anonymous, 6 = verifiable and clearly attributable)?",
			"How much solid evidence, rather than vague assertions, is included (1 = only broad claims, 6 = strong, detailed evidence)?",
			"How precise and free from vague or misleading language is the text (1 = very vague/misleading, 6 = precise and transparent)?",
		},
	},
	{
		Key:         "newsworthiness",
		DisplayName: "Newsworthiness",
		Questions: []string{
			"How significant is the information to genuine public interest (1 = trivial, 6 = highly significant)?",
			"How timely and relevant is the information to current events (1 = outdated/irrelevant, 6 = extremely timely and relevant)?",
			"How relevant is the announcement to your target audience (1 = not relevant, 6 = highly relevant)?",
			"How new, unique, or impactful is the development (1 = no novelty/impact, 6 = groundbreaking and impactful)?",
			"How substantial are the potential long-term implications (1 = minimal/none, 6 = highly substantial)?",
			"How broad is the scope of the story (1 = very limited, 6 = global or wide-scale significance)?",
		},
	},
	{
		Key:         "bias_intent",
		DisplayName: "Bias & Intent",
		Questions: []string{
			"How balanced and informative, rather than purely promotional, is the content (1 = purely promotional, 6 = fully balanced and informative)?",
			"How transparent is it about who benefits from the announcement (1 = no clarity, 6 = full transparency)?",
			"How complete is the information with minimal omissions (1 = key details missing, 6 = comprehensive and complete)?",
			"How neutral and objective is the framing (1 = heavily biased, 6 = entirely neutral and objective)?",
			"How free is the language from emotional manipulation (1 = highly manipulative, 6 = free of manipulation)?",
			"How well does it acknowledge alternative perspectives or counterarguments (1 = none acknowledged, 6 = well represented)?",
		},
	},
	{
		Key:         "practicality_next_steps",
		DisplayName: "Practicality & Next Steps",
		Questions: []string{
			"How clear and actionable is the practical information (dates, events, availability) (1 = unclear/unusable, 6 = highly clear and actionable)?",
			"How easy is it to independently verify key claims (1 = not verifiable, 6 = very easy to verify)?",
			"How strong is the availability of supporting materials (reports, images, links) (1 = none provided, 6 = extensive and useful)?",
			"How clear and accessible is the writing for a general audience (1 = confusing/unclear, 6 = very clear and accessible)?",
			"How much further investigation or follow-up is required (1 = major gaps requiring full investigation, 6 = minimal follow-up needed)?",
			"How much does the content read as genuine news rather than PR spin (1 = pure PR spin, 6 = genuine news value)?",
		},
	},
}

// Static returns the built-in catalog.
func Static() Provider {
	c, err := newCatalog(staticCategories)
	if err != nil {
		// The built-in catalog is fixed at compile time; a shape error here
		// is a programming mistake.
		panic(err)
	}
	return c
}
