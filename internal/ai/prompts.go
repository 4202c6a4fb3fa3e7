package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/job_scoring.md
var jobScoringPromptRaw string

// JobScoringTemplate is the parsed prompt template for job scoring.
// Parsed once at package init; reused on every Score call.
var JobScoringTemplate = template.Must(template.New("job_scoring").Parse(jobScoringPromptRaw))

// DefaultProfile is used when no candidate profile is configured.
const DefaultProfile = `- MSc in Computer Engineering, Data Engineering and AI track
- Experience in software development, Big Data, NLP and RAG systems
- Languages: Python, Java, Go
- Databases: PostgreSQL, MongoDB, ArangoDB, Pinecone
- Frameworks: LangChain, Haystack, Spring, REST APIs, Apache Spark
- Tools: Git, Docker, Linux; Agile, TDD, CI/CD
- English C1
- Target roles: Data Engineer, Software Engineer, AI Engineer, Backend Developer
- Preferred locations: Northern Italy or Southern France, remote or hybrid welcome
- Values solid or innovative companies, growth opportunities and competitive pay`
