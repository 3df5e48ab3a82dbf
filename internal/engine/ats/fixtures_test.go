package ats

const strongResume = `Jane Doe
jane.doe@example.com
(555) 123-4567

Summary
Senior software engineer with eight years building distributed systems in Go and Python on AWS.

Experience
Senior Software Engineer, Acme Corp
- Led a team of 8 engineers delivering a payments platform used by 2 million customers
- Reduced API latency by 45% by redesigning the caching layer with Redis
- Increased deployment frequency 3x by building CI/CD pipelines with Docker and Kubernetes
- Saved $250K per year by migrating batch jobs to AWS spot instances
Software Engineer, Beta Labs
- Built REST APIs in Go serving 50,000 requests per second
- Improved test coverage from 40% to 85% by introducing unit testing standards
- Mentored 4 junior engineers and ran weekly design reviews

Education
B.S. Computer Science, State University

Skills
Go, Golang, Python, AWS, Docker, Kubernetes, Redis, PostgreSQL, CI/CD, Git
`

const backendJob = `We are looking for a senior software engineer to build distributed systems in Go and Python.
You will design REST APIs, run services on AWS with Docker and Kubernetes, use Redis and PostgreSQL,
and mentor engineers. Strong communication skills required.`

const weakResume = "Worked at company"
