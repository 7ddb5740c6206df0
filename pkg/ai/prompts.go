package ai

// ExtractSystemPrompt frames the extraction call.
const ExtractSystemPrompt = `You are a knowledge graph extraction assistant.
You read a passage and identify the key concepts it mentions together with the
relationships that hold between them. Describe each relationship with a short
verb phrase. Be objective and stay close to the text.`

// ExtractUserPrompt is followed by the text window to analyze.
const ExtractUserPrompt = `Analyze the text below and extract subject-predicate-object triples.

Rules:
- Entity consistency: use one consistent name for an entity throughout the
  text. If a person or organization is referred to in several ways, pick the
  most complete form and use it in every triple.
- Atomic terms: identify distinct key terms (objects, places, organizations,
  acronyms, people, states, concepts, emotions). Do not merge several concepts
  into one term.
- Resolve references: replace pronouns with the entity they refer to when it
  can be identified.
- Pairwise relations: when several terms appear in the same sentence or short
  paragraph, create a triple for every pair that has a meaningful relation.
- Predicates MUST be 3 words or fewer (for Chinese text, at most 3 characters).
  Never more. Keep them extremely short.
- Capture every relationship stated in the text.
- Write subject, predicate and object in lower case, including names of people
  and places.
- If a person is named, relate them to their location, profession and what they
  are known for, when the text supports it.

Output requirements:
- Return only a JSON array. Each element is an object with the string fields
  "subject", "predicate" and "object".
- No commentary or text outside the JSON.

Example:
[
  {"subject": "term a", "predicate": "relates to", "object": "term b"},
  {"subject": "term c", "predicate": "uses", "object": "term d"}
]

Text to analyze (between triple backticks):
`

// StandardizeSystemPrompt frames the entity resolution call.
const StandardizeSystemPrompt = `You are an expert in entity resolution and knowledge representation.
Your task is to standardize entity names from a knowledge graph so the same
real-world entity is always written the same way.`

// StandardizePrompt takes the newline separated entity list.
const StandardizePrompt = `Below is a list of entity names extracted from a knowledge graph.
Some of them refer to the same real-world entity with different wording.

Identify groups of entities that refer to the same concept and give each group
one standardized name. Only include groups with at least two variants or names
that need standardization. Every variant must be copied exactly as it appears
in the list.

Return a JSON object of the form:
{"groups": [{"canonicalName": "standardized name", "entities": ["variant 1", "variant 2"]}]}

Entity list:
%s`

// InferBetweenSystemPrompt frames the bridging call between disconnected parts of the graph.
const InferBetweenSystemPrompt = `You are an expert in knowledge representation and inference.
Your task is to infer plausible relationships between disconnected entities in a knowledge graph.`

// InferBetweenPrompt takes the entities of both communities and a sample of existing triples.
const InferBetweenPrompt = `I have a knowledge graph with two disconnected communities of entities.

Community 1 entities: %s
Community 2 entities: %s

Here are some existing relationships involving these entities:
%s

Infer 2-3 plausible relationships between entities from Community 1 and
entities from Community 2. Return a JSON array of triples:
[
  {"subject": "entity from community 1", "predicate": "inferred relationship", "object": "entity from community 2"}
]

Only include highly plausible relationships with clear predicates.
IMPORTANT: predicates MUST be no more than 3 words, preferably 1-2 words.
IMPORTANT: subject and object must be different entities. Avoid self-references.`

// InferWithinSystemPrompt frames the densifying call inside one community.
const InferWithinSystemPrompt = `You are an expert in knowledge representation and inference.
Your task is to infer plausible relationships between semantically related entities
that are not yet connected in a knowledge graph.`

// InferWithinPrompt takes the candidate pairs and a sample of existing triples.
const InferWithinPrompt = `I have a knowledge graph with several entities that appear to be semantically
related but are not directly connected.

Here are pairs of entities that might be related:
%s

Here are some existing relationships involving these entities:
%s

Infer plausible relationships between these disconnected pairs. Return a JSON
array of triples:
[
  {"subject": "entity1", "predicate": "inferred relationship", "object": "entity2"}
]

Only include highly plausible relationships with clear predicates.
IMPORTANT: predicates MUST be no more than 3 words, preferably 1-2 words.
IMPORTANT: subject and object must be different entities. Avoid self-references.`
