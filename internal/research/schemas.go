package research

// SERPQuery is one search query with the reason it is being run.
type SERPQuery struct {
	Query        string `json:"query" jsonschema:"title=SERP Query"`
	ResearchGoal string `json:"research_goal" jsonschema:"title=Research Goal,description=First talk about the goal of the research that this query is meant to accomplish. Then go deeper into how to advance the research once the results are found. Mention additional research directions and be as specific as possible about them."`
}

// SERPQueries is the structured output of query generation.
type SERPQueries struct {
	Queries []SERPQuery `json:"queries" jsonschema:"title=List of SERP Queries"`
}

// RefinementQuestions is the structured output of query refinement.
type RefinementQuestions struct {
	Questions []string `json:"questions" jsonschema:"title=List of User Query Refinement Questions,description=Follow up questions to clarify the research direction."`
}

// Learning is what is extracted from the results of one SERP query.
type Learning struct {
	Learning        string   `json:"learning" jsonschema:"title=Learnings from Data,description=Generate a concise and data-driven insight from SERP analysis. Provide actionable and specific information highlighting key patterns or trends. Ensure insights are evidence-based with high signal-to-noise ratio to inform decisions or research."`
	FollowUpQueries []string `json:"follow_up_queries" jsonschema:"title=Follow-up Queries,description=Curated and insightful queries to deepen topic understanding. Questions should guide further research or validate hypotheses. Each should be clear and specific and data-aligned to ensure efficient subsequent investigations."`
}
