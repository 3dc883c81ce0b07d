package chi

// toolSchemaJSON describes the search_data_catalog tool for agent frameworks
// that discover tool definitions over HTTP. The parameter shapes mirror
// searchRequest.
const toolSchemaJSON = `{
  "name": "search_data_catalog",
  "description": "Searches the data catalog for datasets relevant to specific queries or exploratory topics, optionally grounding the search with concrete value terms found in the user's request.",
  "parameters": {
    "type": "object",
    "properties": {
      "user_id": {
        "type": "string",
        "format": "uuid",
        "description": "User whose dataset permissions scope the search."
      },
      "session_id": {
        "type": "string",
        "format": "uuid",
        "description": "Agent session to read the user prompt from and publish results into."
      },
      "user_request": {
        "type": "string",
        "description": "The user's natural-language request, used as shared context when adjudicating candidates."
      },
      "specific_queries": {
        "type": "array",
        "items": {"type": "string"},
        "description": "Precise questions the user wants answered, e.g. 'monthly revenue by region for 2024'."
      },
      "exploratory_topics": {
        "type": "array",
        "items": {"type": "string"},
        "description": "Broad subject areas to survey, e.g. 'customer churn drivers'."
      },
      "value_search_terms": {
        "type": "array",
        "items": {"type": "string"},
        "description": "Concrete entity values mentioned by the user, e.g. 'Red Bull', 'California'. Time or date words are ignored."
      }
    },
    "required": ["user_id"]
  }
}`
