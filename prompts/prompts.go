package prompts

// Default prompt templates. Each is a text/template rendered with the fields
// documented on its constant.
const (
	// GenerateMindmapPrompt breaks a top-level task into a flat list of
	// subtopics. Fields: .Topic.
	GenerateMindmapPrompt = `<instructions>
You are an AI assistant that breaks large tasks down into smaller, actionable subtasks using a structured mindmap.
You always respond with a single JSON object and no other text.
</instructions>

<task>
Divide the main task into logical, sequential subtasks and break each subtask down further into concrete steps.
Make the breakdown as detailed as the task requires: every subtask must be well-defined and achievable.
For every subtask suggest supporting resources (books, articles, tutorials, videos, forums, websites) in "links".
</task>

<rules>
- The response MUST be one valid JSON object with the keys "topic" and "subtopics".
- "subtopics" is a FLAT array. Nesting is expressed with "parentId": the "id" of another entry, or null for a direct child of the main task.
- Every entry has "id", "parentId", "name", "details" and "links".
- A subtask name must differ from its parent's name.
- Each link has "title", "type" (one of: website, tutorial, video, book, article, forum, other) and "url". Only include links that exist.
- Do not wrap the JSON in markdown and do not add any text before or after it.
</rules>

<example>
{
  "topic": "Data Structures",
  "subtopics": [
    {
      "id": "arrays",
      "parentId": null,
      "name": "Arrays",
      "details": "A collection of elements identified by index. Fast access, widely used for fixed-size collections.",
      "links": [
        {"title": "GeeksforGeeks - Arrays", "type": "website", "url": "https://www.geeksforgeeks.org/array-data-structure/"}
      ]
    },
    {
      "id": "static-vs-dynamic-arrays",
      "parentId": "arrays",
      "name": "Static vs Dynamic Arrays",
      "details": "Static arrays have a fixed size. Dynamic arrays resize when more elements are added.",
      "links": []
    },
    {
      "id": "linked-lists",
      "parentId": null,
      "name": "Linked Lists",
      "details": "A linear structure of nodes connected by pointers.",
      "links": []
    }
  ]
}
</example>

Create a mindmap that breaks down the following task:
{{.Topic}}`

	// ExpandNodePrompt breaks one existing node further. Fields: .Topic (the
	// node's name), .NodeID, .Path (ancestor names, root first).
	ExpandNodePrompt = `<instructions>
You are an AI assistant that breaks tasks down into smaller, actionable subtasks.
You always respond with a single JSON object and no other text.
</instructions>

<context>
The task "{{.Topic}}" is part of a larger plan{{if .Path}}: {{range $i, $p := .Path}}{{if $i}} > {{end}}{{$p}}{{end}}{{end}}.
Its node id is "{{.NodeID}}".
</context>

<rules>
- Respond with {"topic": "{{.Topic}}", "subtopics": [...]}.
- "subtopics" is a FLAT array of entries with "id", "parentId", "name", "details" and "links".
- Direct children of "{{.Topic}}" use "parentId": "{{.NodeID}}". Deeper entries point at the "id" of another entry.
- Derive ids as the parent id, a hyphen, then the name with spaces replaced by hyphens.
- Names must differ from "{{.Topic}}" and from each other.
- Each link has "title", "type" (website, tutorial, video, book, article, forum, other) and "url". Only include links that exist.
- No markdown and no text outside the JSON object.
</rules>

Break down the task "{{.Topic}}" into its subtasks.`

	// TaskDetailPrompt produces the long description and evaluation
	// checklist for a node. Fields: .Topic, .NodeID.
	TaskDetailPrompt = `You generate task descriptions and evaluation checklists.
For the task below, respond with a single JSON object and no other text:

{
  "taskDetail": "Details required to perform this task...",
  "evaluationChecklist": [
    "Check whether the requirements have been achieved",
    "Whether performance targets are met",
    "..."
  ]
}

"taskDetail" explains what has to be done and how, in a few paragraphs.
"evaluationChecklist" lists 3 to 8 verifiable criteria for considering the task complete.

Task: {{.Topic}} (node id "{{.NodeID}}")`

	// RolesPrompt produces role and responsibility assignments. Fields:
	// .TaskDetail, .Checklist.
	RolesPrompt = `Read the task below and define the roles and responsibilities needed to carry it out.

[Task Details]
{{.TaskDetail}}

[Evaluation Criteria]
{{range .Checklist}}- {{.}}
{{end}}
Rules:
1. Name each role and its responsibility clearly.
2. Make performance measurable against the evaluation criteria.
3. Reflect the skills and collaboration the task needs.
4. "reason" briefly explains why the role is needed, tied to the details and criteria above.

Respond with a single JSON object and no other text:
{
  "roles": [
    {
      "role": "Requirements analyst",
      "responsibility": "Collect and clarify requirements and propose a solution.",
      "reason": "The task succeeds only if the requirements are understood correctly."
    }
  ]
}`

	// SearchQueryPrompt asks for a web search query for a node. Fields:
	// .Topic, .NodeID.
	SearchQueryPrompt = `Generate the most appropriate web search query for the following task.
The results should help find concrete information for actually carrying the task out.

Task: {{.Topic}}
Task node id: {{.NodeID}}

Consider the following:
1. Include keywords that find specific procedures
2. Include keywords that find practical examples and case studies
3. Leave out unnecessary modifiers

Respond with a JSON object of the form {"query": "..."} and nothing else.`
)
