package research

import (
	"fmt"
	"strings"
	"time"
)

// now is swapped in tests.
var now = time.Now

const systemPromptTemplate = `You are an expert researcher. Today is %s. Follow these instructions when responding:
- You may be asked to research subjects that is after your knowledge cutoff, assume the user is right when presented with news.
- The user is a highly experienced analyst, no need to simplify it, be as detailed as possible and make sure your response is correct.
- Be highly organized.
- Suggest solutions that I didn't think about.
- Be proactive and anticipate my needs.
- Treat me as an expert in all subject matter.
- Mistakes erode my trust, so be accurate and thorough.
- Provide detailed explanations, I'm comfortable with lots of detail.
- Value good arguments over authorities, the source is irrelevant.
- Consider new technologies and contrarian ideas, not just the conventional wisdom.
- You may use high levels of speculation or prediction, just flag it for me.`

const serpQueryPromptTemplate = `Given the following prompt from the user, generate a list of SERP queries to research the topic. Return a maximum of %d queries, but feel free to return less if the original prompt is clear. Make sure each query is unique and not similar to each other. Your query must be not more than 10 keywords long.

%s
`

const autoRefinementAddonTemplate = `If the user query is unclear, please clarify the question yourself by making assumptions that'll provide the best outcome.

User Query:
%s`

const previousResearchAddonTemplate = `Previous Research Goal:
%s

Learnings:
%s

Follow-up Questions from Learnings:
%s`

const refinementPromptTemplate = `Given the following query from the user, ask some follow up questions to clarify the research direction. Return a maximum of %d questions, but feel free to return less if the original query is clear:

User Query:
<query>%s</query>`

const learningPromptTemplate = `Given the following contents from a SERP search for the query, generate a list of learnings from the contents. Return a maximum of %d learnings, but feel free to return less if the contents are clear. Make sure each learning is unique and not similar to each other. The learnings should be concise and to the point, as detailed and information dense as possible. Make sure to include any entities like people, places, companies, products, things, etc. in the learnings, as well as any exact metrics, numbers, or dates. If the SERP data contains any citations, make sure to preserve them in your response. The learnings will be used to research the topic further.

SERP Query:
<query>%s</query>

SERP Data:
<data>%s</data>
`

const reportPromptTemplate = `Given the following from the user, write a final report on the topic using the learnings from research. Make it as as detailed as possible, aim for 3 or more pages, include ALL the learnings from research. Make sure to preserve the citations from the learnings in your response. The report should be well-organized and structured, with a clear introduction, body, and conclusion.

Original User Query:
<prompt>%s</prompt>

Learnings:
<learnings>%s</learnings>
`

// SystemPrompt returns the researcher persona stamped with today's date.
func SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate, now().Format("January 02, 2006"))
}

func serpQueryPrompt(numQueries int, queryAddon string) string {
	return fmt.Sprintf(serpQueryPromptTemplate, numQueries, queryAddon)
}

func autoRefinementAddon(userQuery string) string {
	return fmt.Sprintf(autoRefinementAddonTemplate, userQuery)
}

func previousResearchAddon(goal string, learnings, followUps []string) string {
	return fmt.Sprintf(previousResearchAddonTemplate, goal, bullets(learnings), bullets(followUps))
}

func refinementPrompt(numQuestions int, userQuery string) string {
	return fmt.Sprintf(refinementPromptTemplate, numQuestions, userQuery)
}

func learningPrompt(numLearnings int, serpQuery, serpData string) string {
	return fmt.Sprintf(learningPromptTemplate, numLearnings, serpQuery, serpData)
}

func reportPrompt(userQuery string, learnings []string) string {
	return fmt.Sprintf(reportPromptTemplate, userQuery, bullets(learnings))
}

// withAnswers appends the refinement questions and their answers to query.
func withAnswers(query string, questions, answers []string) string {
	pairs := make([]string, 0, len(questions))
	for i, q := range questions {
		var a string
		if i < len(answers) {
			a = answers[i]
		}
		pairs = append(pairs, fmt.Sprintf("Question: %s\nAnswer: %s", q, a))
	}
	return query + "\n\nFollow-up Questions and Answers:\n" + strings.Join(pairs, "\n\n")
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(it)
	}
	return b.String()
}
