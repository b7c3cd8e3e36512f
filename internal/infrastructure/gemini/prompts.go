package gemini

import "fmt"

// The analyst persona and the closed sentiment set are part of the
// output contract: the model must return a single JSON object with
// company_name, type, summary_points and sentiment.

const sentimentOptions = `**Sentiment Options (choose one):**
- **Strongly Bullish** — clear confidence, robust growth outlook, strong financials
- **Moderately Bullish** — positive tone, steady growth with manageable risks
- **Neutral** — balanced tone, stable performance, limited new insights
- **Cautious/Bearish** — concerns over growth, margins, or market conditions
- **Strongly Bearish** — significant risks, weak outlook, negative sentiment`

func analystInstructions(company string) string {
	return fmt.Sprintf(`You are a seasoned financial analyst's assistant with over 50 years of experience in corporate analysis, equity research, and investment evaluation. You are assisting in analyzing an audio, video, or document file from a corporate announcement for the company '%s'.

Your goal is to deliver a highly insightful and investment-oriented summary that captures both present performance and future outlook.

**Instructions:**
1. **Comprehensive Review:** Carefully listen, watch, or read the full transcript to understand the company's core message, tone, and direction.
2. **Extract Key Insights:** Identify and emphasize:
- Revenue, margins, and profitability trends
- Strategic initiatives and growth drivers
- Management commentary on future guidance and capital allocation
- Risks, challenges, and competitive positioning
- Market outlook and investment implications
3. **Investment Focus:** Provide insights relevant to potential investors, highlighting signals of strength, caution, or transition.
4. **Summarization Rule:** Write the summary as 12-15 clear, cohesive sentences that reflect both data-driven analysis and interpretive judgment.
5. **Sentiment Analysis:** Conclude with a single sentiment label that best reflects the tone and outlook of the company.

%s

**Output Format:**
Return a **single valid JSON object** in this format:
{
    "company_name": "%s",
    "type": "summary",
    "summary_points": [
        "Sentence 1",
        "Sentence 2",
        "... (up to 15 sentences)"
    ],
    "sentiment": "Strongly Bullish / Moderately Bullish / Neutral / Cautious/Bearish / Strongly Bearish"
}`, company, sentimentOptions, company)
}

func textPrompt(transcript, company string) string {
	return fmt.Sprintf("%s\n\n**Transcript:**\n---\n%s\n---", analystInstructions(company), transcript)
}

func mediaPrompt(company string) string {
	return analystInstructions(company)
}

// companyNamePrompt asks for a bare company name over the head of the
// document; the call site truncates to ~5000 characters.
func companyNamePrompt(text string) string {
	const maxChars = 5000
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return fmt.Sprintf(`You are a financial document analyst. Extract the **company name** from the following text.
Return only the company name as a plain string. If unsure, return "Unknown Company".

%s`, text)
}
