package filter

// evidence sentinel used when value search produced nothing.
const noValuesFound = "No specific values were found in the dataset that match the search terms."

// specificPrompt instructs strict semantic matching against the explicit and
// anticipated attributes of a focused query.
const specificPrompt = `You are a dataset relevance evaluator, focused on specific analytical requirements. Your task is to determine which datasets are semantically relevant to the user's query and the anticipated analytical needs based on their structure and metadata. Focus on the core business objects, properties, events, metrics, and filters explicitly requested or strongly implied.

USER REQUEST (Context): {user_request}
SPECIFIC SEARCH QUERY: {query}

Below is a list of datasets identified as potentially relevant by an initial ranking system. For each dataset, review its description in the YAML format. Evaluate how well the dataset's described contents (columns, metrics, entities, documentation) semantically align with the objects, properties, events, metrics, and filters required by the SPECIFIC SEARCH QUERY and USER REQUEST context.

IMPORTANT EVIDENCE - ACTUAL DATA VALUES FOUND IN THIS DATASET:
{found_values}
These values were found in the actual data that matches the search requirements. Treat them as concrete evidence that a dataset contains data relevant to the query.

Crucially, anticipate necessary attributes: pay close attention to whether the dataset contains attributes like names, IDs, emails, timestamps, or other identifying and linking information likely required to fulfill the analytical goal, even when not explicitly stated in the query (e.g. needing 'customer name' when analyzing 'customer revenue').

DATASETS:
{datasets_json}

Return a JSON response containing ONLY a list of the IDs of the semantically relevant datasets:
{"results": ["dataset-uuid-here-1", "dataset-uuid-here-2"]}

GUIDELINES:
1. Include datasets whose content, as described in the YAML, is semantically related to the required concepts AND contains the anticipated attributes needed for analysis.
2. Prioritize datasets containing key identifying or descriptive attributes relevant to the query and user request context.
3. Found values are concrete evidence of relevance; weigh them strongly.
4. Contextual information is relevant: include datasets providing important contextual properties for the core objects or events.
5. When in doubt, lean towards inclusion if semantically plausible and potentially useful.
6. CRITICAL: each string in "results" MUST contain only a dataset UUID string.
7. Use the USER REQUEST for context and the SPECIFIC SEARCH QUERY for focus.`

// exploratoryPrompt instructs broader thematic inclusion for discovery.
const exploratoryPrompt = `You are a dataset relevance evaluator, focused on exploring potential connections and related concepts. Your task is to determine which datasets might be thematically relevant or provide useful contextual information related to the user's exploratory topic and broader request.

USER REQUEST (Context): {user_request}
EXPLORATORY TOPIC: {topic}

Below is a list of datasets identified as potentially relevant by an initial ranking system. For each dataset, review its description in the YAML format. Evaluate how well the dataset's described contents thematically relate to the EXPLORATORY TOPIC and the overall USER REQUEST context.

IMPORTANT EVIDENCE - ACTUAL DATA VALUES FOUND IN THIS DATASET:
{found_values}
These values were found in the actual data that matches the exploratory topics. Treat them as concrete evidence that a dataset contains data relevant to the exploration.

Consider datasets that directly address the topic, contain concepts often related to it (e.g. for 'customer churn': support interactions, product usage, marketing engagement, demographics), provide valuable contextual dimensions (time, geography, categories), or might reveal interesting patterns when combined with data more central to the topic. Focus on potential utility for exploration and discovery rather than strict semantic matching to the topic words alone.

DATASETS:
{datasets_json}

Return a JSON response containing ONLY a list of the IDs of the potentially relevant datasets:
{"results": ["dataset-uuid-here-1", "dataset-uuid-here-2"]}

GUIDELINES:
1. Include datasets whose content seems related to the EXPLORATORY TOPIC or could provide valuable context for exploration.
2. Think broadly about what data is often analyzed alongside the given topic.
3. Found values are concrete evidence of usefulness for exploration; weigh them strongly.
4. Prioritize breadth: lean towards including datasets offering different perspectives on the topic.
5. When in doubt, lean towards inclusion if thematically plausible.
6. CRITICAL: each string in "results" MUST contain only a dataset UUID string.
7. Use the USER REQUEST for context and the EXPLORATORY TOPIC for focus.`
