package audit

import "fmt"

// promptTemplate is the fixed instruction sent with every audit. The only
// parameter is the store URL.
const promptTemplate = `
You are a world-class E-commerce Auditor specializing in Shopify stores.
I need you to audit this specific URL: %s

Use Google Search to analyze the store's public pages, reviews, social media presence, and any available performance data (like PageSpeed insights mentioned in forums or blogs).

Evaluate the store on 4 key pillars:
1. SEO (Search Engine Optimization)
2. UX (User Experience & Design)
3. Performance (Speed & Trust signals)
4. Content (Product descriptions, About Us, Clarity)

After your research, generate a structured JSON object.

CRITICAL OUTPUT INSTRUCTIONS:
1. Provide a brief text summary of your findings first.
2. THEN, strictly output a valid JSON object wrapped in a code block ` + "```json ... ```" + `.

The JSON structure must match this schema exactly:
{
  "overallScore": number (0-100),
  "summary": "A 2-3 sentence executive summary of the store health.",
  "metrics": {
    "seo": { "name": "SEO", "score": number, "status": "good"|"average"|"poor", "description": "Brief reason" },
    "ux": { "name": "UX/UI", "score": number, "status": "good"|"average"|"poor", "description": "Brief reason" },
    "performance": { "name": "Performance", "score": number, "status": "good"|"average"|"poor", "description": "Brief reason" },
    "content": { "name": "Content", "score": number, "status": "good"|"average"|"poor", "description": "Brief reason" }
  },
  "recommendations": [
    { "priority": "High"|"Medium"|"Low", "category": "SEO"|"UX"|"Speed", "issue": "Problem found", "fix": "Actionable advice" }
    // Limit to top %d recommendations
  ],
  "strengths": ["string", "string", "string"],
  "competitors": ["Competitor 1", "Competitor 2"]
}
`

// MaxRecommendations is the cap the prompt asks the model to respect.
// The normalizer does not enforce it.
const MaxRecommendations = 4

// BuildPrompt renders the audit instructions for a normalized store URL
func BuildPrompt(url string) string {
	return fmt.Sprintf(promptTemplate, url, MaxRecommendations)
}
