package render

// Default theme assets given to every new site. The template is plain
// handlebars over the documented context shapes; sites replace it wholesale
// through the theme settings endpoint.

const DefaultTemplate = `<!DOCTYPE html>
<html lang="{{site.language}}">
<head>
<meta charset="utf-8">
<title>{{site.title}}</title>
<meta name="description" content="{{site.description}}">
<link rel="stylesheet" href="/main.css">
<link rel="alternate" type="application/rss+xml" href="/rss.xml">
</head>
<body>
<header>
<h1><a href="/">{{site.title}}</a></h1>
<p>{{site.description}}</p>
</header>
<main>
{{#if post}}
<article>
<h2>{{post.title}}</h2>
<p class="meta">{{post.publish_date}} — {{post.author.name}}</p>
<div class="body">{{post.body}}</div>
<ul class="tags">
{{#each post.tags}}<li><a href="/tag/{{this}}/">{{this}}</a></li>{{/each}}
</ul>
</article>
{{/if}}
{{#if title}}<h2>{{title}}</h2>{{/if}}
{{#each posts}}
<article>
<h2><a href="/post/{{slug}}.html">{{title}}</a></h2>
<p class="meta">{{publish_date}}</p>
<p>{{description}}</p>
</article>
{{/each}}
{{#if total_pages}}<p class="pages">Page {{current_page}} of {{total_pages}}</p>{{/if}}
</main>
<script src="/main.js"></script>
</body>
</html>
`

const DefaultCSS = `body { max-width: 42rem; margin: 0 auto; padding: 1rem; font-family: serif; }
.meta { color: #666; font-size: 0.875rem; }
.tags li { display: inline; margin-right: 0.5rem; }
`

const DefaultJS = `/* site scripts */
`
