package llm

import "fmt"

// maxDocumentChars - сколько символов документа уходит в модель
const maxDocumentChars = 4000

const parserSystem = "You are an expert real estate data parser. Extract property information and return it as JSON."

const analystSystem = `You are an elite real estate investment analyst with expertise in property valuation,
market analysis, and investment strategies. You provide institutional quality analysis reports.
Provide comprehensive, data-driven insights with specific recommendations.`

func parserPrompt(name, content string) string {
	return fmt.Sprintf(`Parse this property document and extract the following information in JSON format:
{
    "address": "property address",
    "city": "city",
    "state": "state",
    "zip_code": "zip code",
    "property_type": "single family, multifamily, commercial, etc",
    "units": number of units,
    "asking_price": asking price in USD,
    "square_feet": total square footage,
    "year_built": year built,
    "current_rent": current monthly rent or total rent if multiple units,
    "expenses": estimated annual expenses,
    "occupancy_rate": current occupancy percentage,
    "additional_info": "any other relevant information"
}

Property name: %s

Document content:
%s

Return ONLY the JSON object, no other text.`, name, content)
}

func analysisPrompt(name, propertyJSON string) string {
	return fmt.Sprintf(`Provide a comprehensive 360-degree investment analysis for this property. Be extremely detailed and professional.

Property name: %s

Property Data:
%s

Provide your analysis in the following JSON format:
{
    "executive_summary": "2-3 paragraph overview of the investment opportunity",
    "property_overview": {
        "description": "detailed property description",
        "strengths": ["list of key strengths"],
        "weaknesses": ["list of potential concerns"]
    },
    "financial_analysis": {
        "purchase_price": asking price,
        "estimated_value": "your valuation",
        "cap_rate": "estimated cap rate",
        "cash_on_cash_return": "estimated return",
        "annual_cash_flow": "projected annual cash flow",
        "total_roi_5year": "5-year ROI projection",
        "break_even_occupancy": "percentage"
    },
    "market_analysis": {
        "market_overview": "local market conditions",
        "demand_drivers": ["key demand factors"],
        "supply_factors": ["supply considerations"],
        "competition_level": "low/medium/high",
        "market_trend": "improving/stable/declining"
    },
    "risk_assessment": {
        "overall_risk_level": "low/medium/high",
        "key_risks": ["list of main risks"],
        "mitigation_strategies": ["how to address each risk"]
    },
    "investment_recommendation": {
        "recommended_strategy": "Buy and Hold / BRRRR / Fix and Flip / Pass",
        "offer_recommendation": "specific dollar amount and reasoning",
        "negotiation_points": ["leverage points for negotiation"],
        "deal_rating": "1-10 score",
        "reasoning": "detailed explanation of recommendation"
    },
    "action_items": ["specific next steps for investor"]
}

Return ONLY the JSON object with comprehensive analysis.`, name, propertyJSON)
}
